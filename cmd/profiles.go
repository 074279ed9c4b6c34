package cmd

import (
	"errors"
	"fmt"
	"io"

	"baro-mod-manager/modlist"

	"github.com/spf13/cobra"
)

var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "List load-order profiles",
	Long:  `Lists the mod list profiles stored in the game's ModLists directory.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := bootstrap(cmd.Context(), globalConfig)
		if err != nil {
			return err
		}
		defer a.Close()
		return runProfilesList(cmd.OutOrStdout(), a)
	},
}

var profilesShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Print one profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap(cmd.Context(), globalConfig)
		if err != nil {
			return err
		}
		defer a.Close()
		asXML, _ := cmd.Flags().GetBool("xml")
		return runProfilesShow(cmd.OutOrStdout(), a, args[0], asXML)
	},
}

var profilesSaveCmd = &cobra.Command{
	Use:   "save <name> [mod...]",
	Short: "Write a profile",
	Long: `Writes a profile with the given base package and mods, in order.
Without mods the profile captures the mods currently enabled in the game.
With --empty it holds the base package alone.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap(cmd.Context(), globalConfig)
		if err != nil {
			return err
		}
		defer a.Close()
		base, _ := cmd.Flags().GetString("base")
		empty, _ := cmd.Flags().GetBool("empty")
		return runProfilesSave(cmd.OutOrStdout(), a, args[0], base, args[1:], empty)
	},
}

var profilesDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap(cmd.Context(), globalConfig)
		if err != nil {
			return err
		}
		defer a.Close()
		if err := a.mgr.DeleteProfile(args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted profile %s\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(profilesCmd)
	profilesCmd.AddCommand(profilesShowCmd, profilesSaveCmd, profilesDeleteCmd)
	profilesShowCmd.Flags().Bool("xml", false, "Print the profile file as the game writes it")
	profilesSaveCmd.Flags().String("base", "Vanilla", "Core content package")
	profilesSaveCmd.Flags().Bool("empty", false, "Save a profile without mods")
}

func runProfilesList(out io.Writer, a *app) error {
	profiles, err := a.mgr.Profiles()
	if err != nil {
		return err
	}
	if len(profiles) == 0 {
		fmt.Fprintf(out, "No profiles in %s\n", a.mgr.ProfilesDir())
		return nil
	}
	for _, p := range profiles {
		fmt.Fprintf(out, "%s  (%s, %d mods)\n", p.Name, p.BasePackage, len(p.Mods))
	}
	return nil
}

func runProfilesShow(out io.Writer, a *app, name string, asXML bool) error {
	p, err := a.mgr.Profile(name)
	if err != nil {
		return err
	}
	if asXML {
		return p.Write(out)
	}

	installed := make(map[string]bool)
	for _, m := range a.mgr.Mods() {
		installed[m.Name] = true
	}
	fmt.Fprintf(out, "%s\nBase: %s\n", p.Name, p.BasePackage)
	for i, mod := range p.Mods {
		mark := ""
		if !installed[mod] {
			mark = "  (not installed)"
		}
		fmt.Fprintf(out, "%3d. %s%s\n", i+1, mod, mark)
	}
	return nil
}

func runProfilesSave(out io.Writer, a *app, name, base string, mods []string, empty bool) error {
	if empty && len(mods) > 0 {
		return errors.New("--empty does not take mod names")
	}
	if mods == nil {
		mods = []string{}
	}
	if len(mods) == 0 && !empty {
		enabled, err := a.mgr.EnabledMods()
		if err != nil {
			return err
		}
		for _, m := range enabled {
			mods = append(mods, m.Name)
		}
	}
	if len(mods) == 0 && !empty {
		return errors.New("no mods given and none enabled in the game, pass --empty to save the base package alone")
	}

	p := &modlist.Profile{Name: name, BasePackage: base, Mods: mods}
	if err := a.mgr.SaveProfile(p); err != nil {
		return err
	}
	fmt.Fprintf(out, "Saved profile %s with %d mods\n", name, len(mods))
	return nil
}
