package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"standardizer/internal/standards"
)

// NewStandardsCmd создаёт группу команд для файла стандартов.
func NewStandardsCmd(outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "standards",
		Short: "Work with the OKPD2 standards file",
	}

	cmd.AddCommand(newStandardsValidateCmd(outputFn))

	return cmd
}

func newStandardsValidateCmd(outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "validate FILE",
		Short: "Validate a standards file and show per-group counts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()

			catalog, err := standards.Validate(args[0])
			if err != nil {
				return fmt.Errorf("standards file is invalid: %w", err)
			}

			type groupSummary struct {
				Group           string `json:"group"`
				Characteristics int    `json:"characteristics"`
				Values          int    `json:"values"`
				Units           int    `json:"units"`
			}

			headers := []string{"GROUP", "CHARACTERISTICS", "VALUES", "UNITS"}
			var rows [][]string
			var summaries []groupSummary

			for _, groupKey := range catalog.GroupKeys() {
				set, _ := catalog.Lookup(groupKey)

				var values, units int
				for _, ch := range set {
					values += len(ch.Values)
					units += len(ch.Units)
				}

				rows = append(rows, []string{
					groupKey,
					strconv.Itoa(len(set)),
					strconv.Itoa(values),
					strconv.Itoa(units),
				})
				summaries = append(summaries, groupSummary{
					Group:           groupKey,
					Characteristics: len(set),
					Values:          values,
					Units:           units,
				})
			}

			out.Print(headers, rows, summaries)
			out.Success(fmt.Sprintf("standards file is valid: %d groups", catalog.Len()))
			return nil
		},
	}
}
