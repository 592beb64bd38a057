package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/noah-isme/pairs-api/internal/dto"
	"github.com/noah-isme/pairs-api/internal/models"
)

func (c *cli) daysCmd() *cobra.Command {
	days := &cobra.Command{Use: "days", Short: "List, add, show and lock days"}

	days.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List days",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := c.rosters.ListDays(cmd.Context())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "DAY\tNAME\tLOCKED\tPAIRINGS")
			for _, d := range list {
				fmt.Fprintf(w, "%d\t%s\t%t\t%d\n", d.ID, d.Name, d.Locked, d.Pairings)
			}
			return w.Flush()
		},
	})

	days.AddCommand(&cobra.Command{
		Use:   "add",
		Short: "Append a day seeded from the previous one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := c.rosters.AddDay(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(c.out, "added day %d\n", day.ID)
			return nil
		},
	})

	days.AddCommand(&cobra.Command{
		Use:   "show <day>",
		Short: "Show a day's pairings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseDay(args[0])
			if err != nil {
				return err
			}
			day, err := c.rosters.GetDay(cmd.Context(), id)
			if err != nil {
				return err
			}
			return c.printDay(day)
		},
	})

	days.AddCommand(&cobra.Command{
		Use:   "lock <day>",
		Short: "Toggle a day's lock",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseDay(args[0])
			if err != nil {
				return err
			}
			resp, err := c.rosters.ToggleLock(cmd.Context(), id)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.out, "day %d locked=%t\n", resp.ID, resp.Locked)
			return nil
		},
	})

	var name string
	nameCmd := &cobra.Command{
		Use:   "name <day>",
		Short: "Set a day's display name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseDay(args[0])
			if err != nil {
				return err
			}
			return c.rosters.NameDay(cmd.Context(), id, dto.NameDayRequest{Name: name})
		},
	}
	nameCmd.Flags().StringVar(&name, "name", "", "display name")
	days.AddCommand(nameCmd)
	return days
}

func (c *cli) studentsCmd() *cobra.Command {
	students := &cobra.Command{Use: "students", Short: "Manage students"}

	students.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List students with their default section",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := c.rosters.ListStudents(cmd.Context())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "STUDENT\tSECTION")
			for _, s := range list {
				fmt.Fprintf(w, "%s\t%s\n", s.Name, s.Section)
			}
			return w.Flush()
		},
	})

	var section string
	add := &cobra.Command{
		Use:   "add <name>...",
		Short: "Register students",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range args {
				if _, err := c.rosters.CreateStudent(cmd.Context(), dto.CreateStudentRequest{Name: name, Section: section}); err != nil {
					return err
				}
			}
			fmt.Fprintf(c.out, "added %d student(s)\n", len(args))
			return nil
		},
	}
	add.Flags().StringVarP(&section, "section", "s", "", "default section")
	students.AddCommand(add)

	students.AddCommand(&cobra.Command{
		Use:   "rm <name>",
		Short: "Delete a student from the roster and every day",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.rosters.DeleteStudent(cmd.Context(), args[0])
		},
	})
	return students
}

func (c *cli) sectionsCmd() *cobra.Command {
	sections := &cobra.Command{Use: "sections", Short: "Manage sections"}

	sections.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List sections",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := c.rosters.ListSections(cmd.Context())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "SECTION\tZOOM")
			for _, s := range list {
				fmt.Fprintf(w, "%s\t%s\n", s.Name, s.Zoom)
			}
			return w.Flush()
		},
	})

	var zoom string
	add := &cobra.Command{
		Use:   "add <name>",
		Short: "Register a section",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := c.rosters.CreateSection(cmd.Context(), dto.CreateSectionRequest{Name: args[0], Zoom: zoom})
			return err
		},
	}
	add.Flags().StringVar(&zoom, "zoom", "", "zoom meeting token")
	sections.AddCommand(add)
	return sections
}

func (c *cli) teamsCmd() *cobra.Command {
	teams := &cobra.Command{Use: "teams", Short: "Manage teams"}

	teams.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List teams",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := c.rosters.ListTeams(cmd.Context())
			if err != nil {
				return err
			}
			for _, t := range list {
				fmt.Fprintln(c.out, t)
			}
			return nil
		},
	})

	teams.AddCommand(&cobra.Command{
		Use:   "add <name>...",
		Short: "Register teams",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range args {
				if _, err := c.rosters.CreateTeam(cmd.Context(), dto.TeamRequest{Name: name}); err != nil {
					return err
				}
			}
			return nil
		},
	})
	return teams
}

func (c *cli) assignCmd() *cobra.Command {
	var section, team string
	var unassign bool
	cmd := &cobra.Command{
		Use:   "assign <day> <student>",
		Short: "Place a student; no --section marks them absent",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseDay(args[0])
			if err != nil {
				return err
			}
			var day *dto.DayResponse
			if unassign {
				day, err = c.rosters.Unassign(cmd.Context(), id, args[1])
			} else {
				day, err = c.rosters.Assign(cmd.Context(), id, dto.AssignRequest{Student: args[1], Section: section, Team: team})
			}
			if err != nil {
				return err
			}
			return c.printDay(day)
		},
	}
	cmd.Flags().StringVarP(&section, "section", "s", "", "section for the day")
	cmd.Flags().StringVarP(&team, "team", "t", "", "team to join")
	cmd.Flags().BoolVar(&unassign, "remove", false, "remove the student's pairing instead")
	return cmd
}

func (c *cli) shuffleCmd() *cobra.Command {
	var mode, section string
	cmd := &cobra.Command{
		Use:   "shuffle <day>",
		Short: "Shuffle a section or the whole day",
		Long: `Run one of the shuffling algorithms on a day.

Modes:
  shuffle           fresh pairs within --section
  continuity        keep one member on each team within --section
  repeat            restore the previous day's pairs within --section
  grand             reshuffle every section together
  grand-continuity  grand shuffle keeping one member per team`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseDay(args[0])
			if err != nil {
				return err
			}
			resp, err := c.rosters.Shuffle(cmd.Context(), id, dto.ShuffleRequest{Mode: mode, Section: section})
			if err != nil {
				return err
			}
			if err := c.printPairings(resp.Pairings); err != nil {
				return err
			}
			if resp.RepeatPairs > 0 {
				fmt.Fprintf(c.out, "%d pair(s) repeat an earlier partner\n", resp.RepeatPairs)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&mode, "mode", "m", dto.ShuffleModeShuffle, "shuffle, continuity, repeat, grand or grand-continuity")
	cmd.Flags().StringVarP(&section, "section", "s", "", "section to shuffle")
	return cmd
}

func (c *cli) exportCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export <day>",
		Short: "Write a day's pairings as CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseDay(args[0])
			if err != nil {
				return err
			}
			if output == "" || output == "-" {
				return c.exports.WriteDay(cmd.Context(), id, c.out)
			}
			f, err := os.Create(output)
			if err != nil {
				return err
			}
			if err := c.exports.WriteDay(cmd.Context(), id, f); err != nil {
				_ = f.Close()
				return err
			}
			return f.Close()
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "-", "output file, - for stdout")
	return cmd
}

func (c *cli) printDay(day *dto.DayResponse) error {
	title := "day " + strconv.Itoa(day.ID)
	if day.Name != "" {
		title += " (" + day.Name + ")"
	}
	if day.Locked {
		title += " [locked]"
	}
	fmt.Fprintln(c.out, title)
	return c.printPairings(day.Pairings)
}

func (c *cli) printPairings(pairings []models.PairingRecord) error {
	w := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SECTION\tTEAM\tKIND\tSTUDENTS")
	for _, p := range pairings {
		students := []string{string(p.Student)}
		if p.Kind == models.PairingKindPair {
			students = []string{string(p.Primary), string(p.Secondary)}
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", p.Section, p.Team, p.Kind, strings.Join(students, ", "))
	}
	return w.Flush()
}

func parseDay(raw string) (int, error) {
	id, err := strconv.Atoi(raw)
	if err != nil || id < 0 {
		return 0, fmt.Errorf("day must be a non-negative integer, got %q", raw)
	}
	return id, nil
}
