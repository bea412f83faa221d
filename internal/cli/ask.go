package cli

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/spf13/cobra"
)

var askRawHTML bool

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a question and get a grounded, cited answer",
	Long: `Ask a question about the indexed documents.

Answers come only from the indexed content. Questions naming a year
("What was the road budget in 2014-15?") are answered for exactly that year.

Examples:
  govqa ask "What was the education budget in 2014?"
  govqa ask "List the road works approved in 2016-17"`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().BoolVar(&askRawHTML, "html", false, "print the raw HTML answer")
}

func runAsk(cmd *cobra.Command, args []string) error {
	userID, err := resolveUserID()
	if err != nil {
		return err
	}

	resp, err := api.Chat(context.Background(), userID, args[0])
	if err != nil {
		return fmt.Errorf("ask: %w", err)
	}

	if askRawHTML {
		fmt.Println(resp.Answer)
	} else {
		fmt.Println(stripHTML(resp.Answer))
	}

	if len(resp.Sources) > 0 {
		fmt.Println("\nSources:")
		for _, src := range resp.Sources {
			fmt.Printf("  - %s\n", src)
		}
	}
	return nil
}

var (
	blockTagRe = regexp.MustCompile(`(?i)</(p|div|h[1-6]|li|tr|table)>|<br\s*/?>`)
	anyTagRe   = regexp.MustCompile(`<[^>]+>`)
	blankRunRe = regexp.MustCompile(`\n{3,}`)
)

// stripHTML flattens the server's HTML answer into terminal-friendly text.
func stripHTML(html string) string {
	text := blockTagRe.ReplaceAllString(html, "\n")
	text = anyTagRe.ReplaceAllString(text, "")
	text = strings.ReplaceAll(text, "&amp;", "&")
	text = strings.ReplaceAll(text, "&lt;", "<")
	text = strings.ReplaceAll(text, "&gt;", ">")
	text = blankRunRe.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
