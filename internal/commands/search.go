package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/balkashynov/tomate/internal/db"
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search tasks across all fields",
	Long: `Search tasks with ranked matching:
- Exact match (highest priority)
- Prefix match
- Suffix match
- Contains (lowest priority)

Search is case insensitive and looks at title, notes, tags and domain.`,
	Args: cobra.MinimumNArgs(1),
	Run: withDB(func(cmd *cobra.Command, args []string) {
		query := strings.Join(args, " ")

		opts, err := queryOptions(cmd)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}

		tasks, err := db.SearchTasks(query, opts)
		if err != nil {
			fmt.Printf("Error searching tasks: %v\n", err)
			return
		}

		if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
			renderJSON(map[string]any{
				"query": query,
				"count": len(tasks),
				"tasks": tasks,
			})
			return
		}

		fmt.Printf("Search results for '%s' (%d found):\n", query, len(tasks))
		if len(tasks) == 0 {
			fmt.Println("No tasks found matching your search.")
			return
		}
		fmt.Println()
		renderTaskTable(tasks)
	}),
}

func init() {
	addQueryFlags(searchCmd)
}
