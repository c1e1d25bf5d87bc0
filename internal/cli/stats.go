package cli

import (
	"strconv"

	"github.com/spf13/cobra"
)

// NewStatsCmd создаёт команду статистики.
func NewStatsCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show standardization statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			stats, err := client.Stats()
			if err != nil {
				return err
			}

			headers := []string{"SCOPE", "STATUS", "COUNT"}
			var rows [][]string

			rows = append(rows, []string{"queue", "total", strconv.FormatInt(stats.Queue.Total, 10)})
			for _, status := range sortedStatusKeys(stats.Queue.ByStatus) {
				rows = append(rows, []string{"queue", status, strconv.FormatInt(stats.Queue.ByStatus[status], 10)})
			}

			rows = append(rows, []string{"standardized", "total", strconv.FormatInt(stats.Standardized.Total, 10)})
			for _, status := range sortedStatusKeys(stats.Standardized.ByStatus) {
				rows = append(rows, []string{"standardized", status, strconv.FormatInt(stats.Standardized.ByStatus[status], 10)})
			}

			for _, g := range stats.Queue.ByClass {
				rows = append(rows, []string{"class " + g.Code, "", strconv.FormatInt(g.Count, 10)})
			}

			out.Print(headers, rows, stats)
			return nil
		},
	}
}
