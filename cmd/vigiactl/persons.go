package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var personsCmd = &cobra.Command{
	Use:   "persons",
	Short: "List enrolled persons and their sample counts",
	RunE:  runPersons,
}

func init() {
	rootCmd.AddCommand(personsCmd)
}

func runPersons(cmd *cobra.Command, args []string) error {
	c := newClient()

	var resp struct {
		Persons []struct {
			Name    string `json:"name"`
			Samples int    `json:"samples"`
		} `json:"persons"`
		Total int `json:"total"`
	}
	if err := c.get("/v1/persons", &resp); err != nil {
		return err
	}

	if resp.Total == 0 {
		fmt.Println("No persons enrolled. Use 'vigiactl enroll <name>' to add one.")
		return nil
	}

	for _, p := range resp.Persons {
		fmt.Printf("%-24s %d samples\n", p.Name, p.Samples)
	}
	fmt.Printf("\n%d person(s) enrolled\n", resp.Total)

	return nil
}
