package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/posthub/posthub/internal/api"
	"github.com/spf13/cobra"
)

var postsCmd = &cobra.Command{
	Use:   "posts",
	Short: "Work with posts from the command line",
}

var postsListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List posts",
	RunE:    runPostsList,
}

var postsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a post with its comments",
	Args:  cobra.ExactArgs(1),
	RunE:  runPostsShow,
}

var postsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Publish a post (content read from stdin)",
	Long: `Publish a post. The content is read from stdin, so it pipes well:

  posthub posts create --title "Hello" < draft.md`,
	RunE: runPostsCreate,
}

var postsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete one of your posts",
	Args:  cobra.ExactArgs(1),
	RunE:  runPostsDelete,
}

var (
	createTitle   string
	createExcerpt string
	deleteYes     bool
)

func init() {
	postsCreateCmd.Flags().StringVarP(&createTitle, "title", "t", "", "Post title (required)")
	postsCreateCmd.Flags().StringVarP(&createExcerpt, "excerpt", "x", "", "Short description")
	_ = postsCreateCmd.MarkFlagRequired("title")
	postsDeleteCmd.Flags().BoolVarP(&deleteYes, "yes", "y", false, "Skip confirmation")

	postsCmd.AddCommand(postsListCmd)
	postsCmd.AddCommand(postsShowCmd)
	postsCmd.AddCommand(postsCreateCmd)
	postsCmd.AddCommand(postsDeleteCmd)
}

func parsePostID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid post id %q", arg)
	}
	return id, nil
}

func runPostsList(cmd *cobra.Command, args []string) error {
	_, _, client, _, err := newRuntime()
	if err != nil {
		return err
	}

	posts, err := client.ListPosts(context.Background())
	if err != nil {
		return fmt.Errorf("failed to list posts: %w", err)
	}

	if len(posts) == 0 {
		fmt.Println("No posts yet.")
		return nil
	}

	for _, p := range posts {
		title := p.Title
		if len(title) > 48 {
			title = title[:45] + "..."
		}
		fmt.Printf("  %-6d %-48s  %-16s  💬 %d\n",
			p.ID, title, p.Author.DisplayName(), p.CommentCount)
	}
	return nil
}

func runPostsShow(cmd *cobra.Command, args []string) error {
	_, _, client, _, err := newRuntime()
	if err != nil {
		return err
	}

	id, err := parsePostID(args[0])
	if err != nil {
		return err
	}

	ctx := context.Background()
	post, err := client.GetPost(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to fetch post: %w", err)
	}
	comments, err := client.ListComments(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to fetch comments: %w", err)
	}

	fmt.Printf("\n%s\n", post.Title)
	fmt.Printf("by %s on %s\n\n", post.Author.DisplayName(), post.CreatedAt.Format("Jan 2, 2006"))
	fmt.Println(post.Content)
	fmt.Printf("\n%s\nComments (%d)\n\n", strings.Repeat("─", 60), len(comments))
	for _, c := range comments {
		fmt.Printf("  [%d] %s · %s\n", c.ID, c.Author.DisplayName(), c.CreatedAt.Format("Jan 2 15:04"))
		fmt.Printf("      %s\n", c.Content)
	}
	return nil
}

func runPostsCreate(cmd *cobra.Command, args []string) error {
	_, _, client, provider, err := newRuntime()
	if err != nil {
		return err
	}

	if provider.CurrentUser() == nil {
		return fmt.Errorf("not signed in: run 'posthub auth login' first")
	}

	content, err := io.ReadAll(os.Stdin)
	if err != nil {
		return fmt.Errorf("failed to read content: %w", err)
	}
	if strings.TrimSpace(string(content)) == "" {
		return fmt.Errorf("post content is empty")
	}

	post, err := client.CreatePost(context.Background(), api.PostInput{
		Title:   createTitle,
		Content: strings.TrimSpace(string(content)),
		Excerpt: createExcerpt,
	})
	if err != nil {
		return fmt.Errorf("failed to create post: %w", err)
	}

	fmt.Printf("Published post %d: %s\n", post.ID, post.Title)
	return nil
}

func runPostsDelete(cmd *cobra.Command, args []string) error {
	_, _, client, _, err := newRuntime()
	if err != nil {
		return err
	}

	id, err := parsePostID(args[0])
	if err != nil {
		return err
	}

	if !deleteYes {
		answer := prompt(fmt.Sprintf("Delete post %d? [y/N]", id))
		if !strings.EqualFold(answer, "y") {
			fmt.Println("Cancelled.")
			return nil
		}
	}

	if err := client.DeletePost(context.Background(), id); err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}

	fmt.Println("Post deleted.")
	return nil
}
