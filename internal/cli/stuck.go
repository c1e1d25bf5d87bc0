package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

// NewStuckCmd создаёт группу команд для застрявших товаров.
func NewStuckCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stuck",
		Short: "Manage products stuck in processing",
	}

	cmd.AddCommand(newStuckResetCmd(clientFn, outputFn))

	return cmd
}

func newStuckResetCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var olderThan string

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Reset stuck products back to pending",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			result, err := client.ResetStuck(olderThan)
			if err != nil {
				return err
			}

			out.Print(
				[]string{"RESET"},
				[][]string{{fmt.Sprintf("%d", result.Reset)}},
				result,
			)
			out.Success(fmt.Sprintf("%d stuck products reset to pending", result.Reset))
			return nil
		},
	}

	cmd.Flags().StringVar(&olderThan, "older-than", "", "Override stuck threshold (e.g. 45m, 2h)")

	return cmd
}

// sortedStatusKeys возвращает отсортированные ключи карты статусов.
func sortedStatusKeys(m map[string]int64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
