package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/stremer/stremerd"
	"github.com/stremer/stremerd/database"
)

var rootsCmd = &cobra.Command{
	Use:   "roots",
	Short: "Manage the granted storage roots",
	Long: `Manage the directory subtrees served by the permission-tree backend.

Roots are persisted and restored in registration order at startup. They are
ignored while a base path is configured (direct-path backend).`,
}

var rootsAddCmd = &cobra.Command{
	Use:   "add <name> <path>",
	Short: "Grant access to a directory subtree",
	Args:  cobra.ExactArgs(2),
	RunE:  runRootsAdd,
}

var rootsRemoveCmd = &cobra.Command{
	Use:     "remove <name>",
	Aliases: []string{"rm"},
	Short:   "Revoke a granted subtree",
	Args:    cobra.ExactArgs(1),
	RunE:    runRootsRemove,
}

var rootsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List granted subtrees in registration order",
	RunE:  runRootsList,
}

func init() {
	rootsCmd.AddCommand(rootsAddCmd)
	rootsCmd.AddCommand(rootsRemoveCmd)
	rootsCmd.AddCommand(rootsListCmd)
	rootCmd.AddCommand(rootsCmd)
}

func openDB(cmd *cobra.Command) (*database.DB, error) {
	return database.Open(cmd.Context(), viper.GetString("storage.database"))
}

func runRootsAdd(cmd *cobra.Command, args []string) error {
	name, path := args[0], args[1]

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return fmt.Errorf("stat path: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("not a directory: %s", abs)
	}

	db, err := openDB(cmd)
	if err != nil {
		return fmt.Errorf("open media index: %w", err)
	}
	defer func() { _ = db.Close() }()

	if err := db.SaveRoot(cmd.Context(), stremerd.StorageRoot{Name: name, Path: abs}); err != nil {
		return fmt.Errorf("save root: %w", err)
	}

	fmt.Printf("Added root %q -> %s\n", name, abs)
	return nil
}

func runRootsRemove(cmd *cobra.Command, args []string) error {
	db, err := openDB(cmd)
	if err != nil {
		return fmt.Errorf("open media index: %w", err)
	}
	defer func() { _ = db.Close() }()

	if err := db.DeleteRoot(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("remove root: %w", err)
	}

	fmt.Printf("Removed root %q\n", args[0])
	return nil
}

func runRootsList(cmd *cobra.Command, args []string) error {
	db, err := openDB(cmd)
	if err != nil {
		return fmt.Errorf("open media index: %w", err)
	}
	defer func() { _ = db.Close() }()

	roots, err := db.ListRoots(cmd.Context())
	if err != nil {
		return fmt.Errorf("list roots: %w", err)
	}

	if len(roots) == 0 {
		fmt.Println("No roots configured.")
		fmt.Println("Run 'stremerd roots add <name> <path>' to grant one.")
		return nil
	}

	for _, r := range roots {
		fmt.Printf("%s\t%s\n", r.Name, r.Path)
	}
	return nil
}
