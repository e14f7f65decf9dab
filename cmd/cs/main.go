package main

import (
	"encoding/json"
	"fmt"
	"os"

	"cs-go/internal/app"
	"cs-go/internal/config"
	"cs-go/internal/core"
	"cs-go/internal/model"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newApp reads the config and creates a CSApp. The caller must defer a.Close().
// operation identifies the CLI command being run (e.g. "CreateProject").
func newApp(operation string) (*app.CSApp, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	a, err := app.NewCSApp(cfg, operation)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}

	return a, nil
}

// printJSON renders command output as indented JSON on stdout.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// decodeFile reads a JSON input file into out.
func decodeFile(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading input file: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decoding input file: %w", err)
	}
	return nil
}

func listOptions(cmd *cobra.Command) core.ListOptions {
	offset, _ := cmd.Flags().GetInt("offset")
	limit, _ := cmd.Flags().GetInt("limit")
	sortBy, _ := cmd.Flags().GetString("sort")
	filter, _ := cmd.Flags().GetString("filter")
	return core.ListOptions{Offset: offset, Limit: limit, SortBy: sortBy, Filter: filter}
}

func addListFlags(cmd *cobra.Command) {
	cmd.Flags().Int("offset", 0, "Skip the first N results")
	cmd.Flags().IntP("limit", "n", 0, "Maximum number of results (0 = all)")
	cmd.Flags().String("sort", "", "Sort by created, updated or name")
	cmd.Flags().String("filter", "", "Case-insensitive name filter")
}

var rootCmd = &cobra.Command{
	Use:   "cs",
	Short: "Git-backed content store",
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg := config.NewConfig(defaults["base_dir"])

		name, _ := cmd.Flags().GetString("name")
		email, _ := cmd.Flags().GetString("email")
		cfg.User.Name = name
		cfg.User.Email = email

		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Base Dir: %s\n", defaults["base_dir"])
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", defaults["config_path"])
		fmt.Printf("Base Dir: %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:  %s\n", cfg.LogDir)
		fmt.Printf("User:     %s <%s>\n", cfg.User.Name, cfg.User.Email)
		fmt.Printf("Git:      %s (lfs: %v)\n", cfg.Git.Binary, cfg.Git.LFS)
		fmt.Printf("Cache:    %v\n", cfg.Cache.Enabled)
		return nil
	},
}

// project commands
var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Manage projects",
}

var projectCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a project",
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		description, _ := cmd.Flags().GetString("description")
		language, _ := cmd.Flags().GetString("language")
		supported, _ := cmd.Flags().GetStringSlice("languages")

		a, err := newApp("CreateProject")
		if err != nil {
			return err
		}
		defer a.Close()

		project, err := a.Service.CreateProject(cmd.Context(), core.CreateProjectInput{
			Name:        name,
			Description: description,
			Settings: model.ProjectSettings{
				Language: model.LanguageSettings{Default: language, Supported: supported},
			},
		})
		if err != nil {
			return err
		}
		return printJSON(project)
	},
}

var projectListCmd = &cobra.Command{
	Use:   "list",
	Short: "List projects",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("ListProjects")
		if err != nil {
			return err
		}
		defer a.Close()

		projects, total, err := a.Service.ListProjects(cmd.Context(), listOptions(cmd))
		if err != nil {
			return err
		}

		for _, p := range projects {
			fmt.Printf("%s  %-10s  %-8s  %s\n", p.ID, p.Status, p.Version, p.Name)
		}
		fmt.Printf("%d of %d project(s)\n", len(projects), total)
		return nil
	},
}

var projectShowCmd = &cobra.Command{
	Use:   "show PROJECT_ID",
	Short: "Show a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		at, _ := cmd.Flags().GetString("at")

		a, err := newApp("ReadProject")
		if err != nil {
			return err
		}
		defer a.Close()

		var project *model.Project
		if at != "" {
			project, err = a.Service.ReadProjectAt(cmd.Context(), args[0], at)
		} else {
			project, err = a.Service.ReadProject(cmd.Context(), args[0])
		}
		if err != nil {
			return err
		}
		return printJSON(project)
	},
}

var projectUpdateCmd = &cobra.Command{
	Use:   "update PROJECT_ID",
	Short: "Update a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var in core.UpdateProjectInput
		if cmd.Flags().Changed("name") {
			v, _ := cmd.Flags().GetString("name")
			in.Name = &v
		}
		if cmd.Flags().Changed("description") {
			v, _ := cmd.Flags().GetString("description")
			in.Description = &v
		}
		if cmd.Flags().Changed("status") {
			v, _ := cmd.Flags().GetString("status")
			status := model.ProjectStatus(v)
			in.Status = &status
		}
		if cmd.Flags().Changed("version") {
			v, _ := cmd.Flags().GetString("version")
			in.Version = &v
		}

		a, err := newApp("UpdateProject")
		if err != nil {
			return err
		}
		defer a.Close()

		project, err := a.Service.UpdateProject(cmd.Context(), args[0], in)
		if err != nil {
			return err
		}
		return printJSON(project)
	},
}

var projectDeleteCmd = &cobra.Command{
	Use:   "delete PROJECT_ID",
	Short: "Delete a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")

		a, err := newApp("DeleteProject")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Service.DeleteProject(cmd.Context(), args[0], force); err != nil {
			return err
		}
		fmt.Printf("Deleted project %s\n", args[0])
		return nil
	},
}

var projectCloneCmd = &cobra.Command{
	Use:   "clone URL",
	Short: "Clone a project from a remote",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("CloneProject")
		if err != nil {
			return err
		}
		defer a.Close()

		project, err := a.Service.CloneProject(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printJSON(project)
	},
}

var projectBranchesCmd = &cobra.Command{
	Use:   "branches PROJECT_ID",
	Short: "List project branches",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("ProjectBranches")
		if err != nil {
			return err
		}
		defer a.Close()

		branches, err := a.Service.ProjectBranches(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		current, err := a.Service.CurrentProjectBranch(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		for _, b := range branches {
			marker := "  "
			if b == current {
				marker = "* "
			}
			fmt.Printf("%s%s\n", marker, b)
		}
		return nil
	},
}

var projectSwitchCmd = &cobra.Command{
	Use:   "switch PROJECT_ID BRANCH",
	Short: "Switch the project's active branch",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		create, _ := cmd.Flags().GetBool("create")

		a, err := newApp("SwitchProjectBranch")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Service.SwitchProjectBranch(cmd.Context(), args[0], args[1], create); err != nil {
			return err
		}
		fmt.Printf("Switched to %s\n", args[1])
		return nil
	},
}

var projectRemoteCmd = &cobra.Command{
	Use:   "remote PROJECT_ID [URL]",
	Short: "Show or set the project's origin URL",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("ProjectRemote")
		if err != nil {
			return err
		}
		defer a.Close()

		if len(args) == 2 {
			if err := a.Service.SetProjectOriginURL(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			fmt.Printf("Origin set to %s\n", args[1])
			return nil
		}

		url, err := a.Service.GetProjectOriginURL(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Println(url)
		return nil
	},
}

var projectChangesCmd = &cobra.Command{
	Use:   "changes PROJECT_ID",
	Short: "Show local and remote changes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("GetChanges")
		if err != nil {
			return err
		}
		defer a.Close()

		changes, err := a.Service.GetChanges(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		fmt.Printf("Ahead %d, behind %d\n", len(changes.Ahead), len(changes.Behind))
		for _, c := range changes.Ahead {
			fmt.Printf("> %s  %s\n", c.Hash[:12], c.Message)
		}
		for _, c := range changes.Behind {
			fmt.Printf("< %s  %s\n", c.Hash[:12], c.Message)
		}
		return nil
	},
}

var projectSyncCmd = &cobra.Command{
	Use:   "sync PROJECT_ID",
	Short: "Synchronize with the remote",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Synchronize")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Service.Synchronize(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Println("Synchronized")
		return nil
	},
}

var projectSnapshotCmd = &cobra.Command{
	Use:   "snapshot PROJECT_ID",
	Short: "Tag the current state",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		message, _ := cmd.Flags().GetString("message")

		a, err := newApp("Snapshot")
		if err != nil {
			return err
		}
		defer a.Close()

		tag, err := a.Service.Snapshot(cmd.Context(), args[0], message)
		if err != nil {
			return err
		}
		fmt.Printf("Created snapshot %s\n", tag)
		return nil
	},
}

var projectUpgradeCmd = &cobra.Command{
	Use:   "upgrade PROJECT_ID",
	Short: "Migrate a project to the running engine version",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")

		a, err := newApp("Upgrade")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Service.Upgrade(cmd.Context(), args[0], force); err != nil {
			return err
		}
		fmt.Printf("Upgraded project %s to %s\n", args[0], core.Version)
		return nil
	},
}

var projectOutdatedCmd = &cobra.Command{
	Use:   "outdated",
	Short: "List projects behind the running engine version",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("ListOutdated")
		if err != nil {
			return err
		}
		defer a.Close()

		outdated, err := a.Service.ListOutdated(cmd.Context())
		if err != nil {
			return err
		}

		if len(outdated) == 0 {
			fmt.Println("All projects are current.")
			return nil
		}
		for _, o := range outdated {
			fmt.Printf("%s  %-8s  %s\n", o.ID, o.EngineVersion, o.Name)
		}
		return nil
	},
}

var projectExportCmd = &cobra.Command{
	Use:   "export PROJECT_ID",
	Short: "Export a project as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("ExportProject")
		if err != nil {
			return err
		}
		defer a.Close()

		data, err := a.Service.ExportToJSON(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	},
}

var projectSearchCmd = &cobra.Command{
	Use:   "search PROJECT_ID QUERY",
	Short: "Search a project's content",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("SearchProject")
		if err != nil {
			return err
		}
		defer a.Close()

		hits, err := a.Service.SearchProject(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}

		if len(hits) == 0 {
			fmt.Println("No matches.")
			return nil
		}
		for _, h := range hits {
			fmt.Printf("%-10s  %s  %s\n", h.ObjectType, h.ID, h.Match)
		}
		return nil
	},
}

// collection commands
var collectionCmd = &cobra.Command{
	Use:   "collection",
	Short: "Manage collections",
}

var collectionCreateCmd = &cobra.Command{
	Use:   "create PROJECT_ID",
	Short: "Create a collection from a JSON definition",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		file, _ := cmd.Flags().GetString("file")

		var in core.CreateCollectionInput
		if err := decodeFile(file, &in); err != nil {
			return err
		}

		a, err := newApp("CreateCollection")
		if err != nil {
			return err
		}
		defer a.Close()

		collection, err := a.Service.CreateCollection(cmd.Context(), args[0], in)
		if err != nil {
			return err
		}
		return printJSON(collection)
	},
}

var collectionListCmd = &cobra.Command{
	Use:   "list PROJECT_ID",
	Short: "List collections",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("ListCollections")
		if err != nil {
			return err
		}
		defer a.Close()

		collections, total, err := a.Service.ListCollections(cmd.Context(), args[0], listOptions(cmd))
		if err != nil {
			return err
		}

		for _, c := range collections {
			fmt.Printf("%s  %-20s  %d field(s)\n", c.ID, c.Slug.Singular, len(c.FieldDefinitions))
		}
		fmt.Printf("%d of %d collection(s)\n", len(collections), total)
		return nil
	},
}

var collectionShowCmd = &cobra.Command{
	Use:   "show PROJECT_ID COLLECTION_ID",
	Short: "Show a collection",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		at, _ := cmd.Flags().GetString("at")

		a, err := newApp("ReadCollection")
		if err != nil {
			return err
		}
		defer a.Close()

		var collection *model.Collection
		if at != "" {
			collection, err = a.Service.ReadCollectionAt(cmd.Context(), args[0], args[1], at)
		} else {
			collection, err = a.Service.ReadCollection(cmd.Context(), args[0], args[1])
		}
		if err != nil {
			return err
		}
		return printJSON(collection)
	},
}

var collectionUpdateCmd = &cobra.Command{
	Use:   "update PROJECT_ID COLLECTION_ID",
	Short: "Update a collection from a JSON definition",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		file, _ := cmd.Flags().GetString("file")

		var in core.UpdateCollectionInput
		if err := decodeFile(file, &in); err != nil {
			return err
		}

		a, err := newApp("UpdateCollection")
		if err != nil {
			return err
		}
		defer a.Close()

		collection, err := a.Service.UpdateCollection(cmd.Context(), args[0], args[1], in)
		if err != nil {
			return err
		}
		return printJSON(collection)
	},
}

var collectionDeleteCmd = &cobra.Command{
	Use:   "delete PROJECT_ID COLLECTION_ID",
	Short: "Delete a collection and its entries",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("DeleteCollection")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Service.DeleteCollection(cmd.Context(), args[0], args[1]); err != nil {
			return err
		}
		fmt.Printf("Deleted collection %s\n", args[1])
		return nil
	},
}

// entry commands
var entryCmd = &cobra.Command{
	Use:   "entry",
	Short: "Manage entries",
}

var entryCreateCmd = &cobra.Command{
	Use:   "create PROJECT_ID COLLECTION_ID",
	Short: "Create an entry from a JSON values file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		file, _ := cmd.Flags().GetString("file")

		var values []model.Value
		if err := decodeFile(file, &values); err != nil {
			return err
		}

		a, err := newApp("CreateEntry")
		if err != nil {
			return err
		}
		defer a.Close()

		entry, err := a.Service.CreateEntry(cmd.Context(), args[0], args[1], values)
		if err != nil {
			return err
		}
		return printJSON(entry)
	},
}

var entryListCmd = &cobra.Command{
	Use:   "list PROJECT_ID COLLECTION_ID",
	Short: "List entries",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("ListEntries")
		if err != nil {
			return err
		}
		defer a.Close()

		entries, total, err := a.Service.ListEntries(cmd.Context(), args[0], args[1], listOptions(cmd))
		if err != nil {
			return err
		}

		for _, e := range entries {
			fmt.Printf("%s  %s  %d value(s)\n", e.ID, e.Created.Format("2006-01-02 15:04:05"), len(e.Values))
		}
		fmt.Printf("%d of %d entries\n", len(entries), total)
		return nil
	},
}

var entryShowCmd = &cobra.Command{
	Use:   "show PROJECT_ID COLLECTION_ID ENTRY_ID",
	Short: "Show an entry",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		at, _ := cmd.Flags().GetString("at")

		a, err := newApp("ReadEntry")
		if err != nil {
			return err
		}
		defer a.Close()

		var entry *model.Entry
		if at != "" {
			entry, err = a.Service.ReadEntryAt(cmd.Context(), args[0], args[1], args[2], at)
		} else {
			entry, err = a.Service.ReadEntry(cmd.Context(), args[0], args[1], args[2])
		}
		if err != nil {
			return err
		}
		return printJSON(entry)
	},
}

var entryUpdateCmd = &cobra.Command{
	Use:   "update PROJECT_ID COLLECTION_ID ENTRY_ID",
	Short: "Update an entry from a JSON values file",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		file, _ := cmd.Flags().GetString("file")

		var values []model.Value
		if err := decodeFile(file, &values); err != nil {
			return err
		}

		a, err := newApp("UpdateEntry")
		if err != nil {
			return err
		}
		defer a.Close()

		entry, err := a.Service.UpdateEntry(cmd.Context(), args[0], args[1], args[2], values)
		if err != nil {
			return err
		}
		return printJSON(entry)
	},
}

var entryDeleteCmd = &cobra.Command{
	Use:   "delete PROJECT_ID COLLECTION_ID ENTRY_ID",
	Short: "Delete an entry",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("DeleteEntry")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Service.DeleteEntry(cmd.Context(), args[0], args[1], args[2]); err != nil {
			return err
		}
		fmt.Printf("Deleted entry %s\n", args[2])
		return nil
	},
}

// asset commands
var assetCmd = &cobra.Command{
	Use:   "asset",
	Short: "Manage assets",
}

var assetCreateCmd = &cobra.Command{
	Use:   "create PROJECT_ID FILE",
	Short: "Create an asset from a file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		description, _ := cmd.Flags().GetString("description")

		a, err := newApp("CreateAsset")
		if err != nil {
			return err
		}
		defer a.Close()

		source, err := a.ResolvePath(args[1])
		if err != nil {
			return err
		}

		asset, err := a.Service.CreateAsset(cmd.Context(), args[0], core.CreateAssetInput{
			Name:        name,
			Description: description,
			SourcePath:  source,
		})
		if err != nil {
			return err
		}
		return printJSON(asset)
	},
}

var assetListCmd = &cobra.Command{
	Use:   "list PROJECT_ID",
	Short: "List assets",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("ListAssets")
		if err != nil {
			return err
		}
		defer a.Close()

		assets, total, err := a.Service.ListAssets(cmd.Context(), args[0], listOptions(cmd))
		if err != nil {
			return err
		}

		for _, as := range assets {
			fmt.Printf("%s  %-12s  %8d  %s\n", as.ID, as.MimeType, as.Size, as.Name)
		}
		fmt.Printf("%d of %d asset(s)\n", len(assets), total)
		return nil
	},
}

var assetShowCmd = &cobra.Command{
	Use:   "show PROJECT_ID ASSET_ID",
	Short: "Show an asset",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		at, _ := cmd.Flags().GetString("at")

		a, err := newApp("ReadAsset")
		if err != nil {
			return err
		}
		defer a.Close()

		var asset *model.Asset
		if at != "" {
			asset, err = a.Service.ReadAssetAt(cmd.Context(), args[0], args[1], at)
		} else {
			asset, err = a.Service.ReadAsset(cmd.Context(), args[0], args[1])
		}
		if err != nil {
			return err
		}
		return printJSON(asset)
	},
}

var assetUpdateCmd = &cobra.Command{
	Use:   "update PROJECT_ID ASSET_ID",
	Short: "Update an asset",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var in core.UpdateAssetInput
		if cmd.Flags().Changed("name") {
			v, _ := cmd.Flags().GetString("name")
			in.Name = &v
		}
		if cmd.Flags().Changed("description") {
			v, _ := cmd.Flags().GetString("description")
			in.Description = &v
		}

		a, err := newApp("UpdateAsset")
		if err != nil {
			return err
		}
		defer a.Close()

		if file, _ := cmd.Flags().GetString("file"); file != "" {
			source, err := a.ResolvePath(file)
			if err != nil {
				return err
			}
			in.SourcePath = source
		}

		asset, err := a.Service.UpdateAsset(cmd.Context(), args[0], args[1], in)
		if err != nil {
			return err
		}
		return printJSON(asset)
	},
}

var assetDeleteCmd = &cobra.Command{
	Use:   "delete PROJECT_ID ASSET_ID",
	Short: "Delete an asset",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("DeleteAsset")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Service.DeleteAsset(cmd.Context(), args[0], args[1]); err != nil {
			return err
		}
		fmt.Printf("Deleted asset %s\n", args[1])
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the engine version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(core.Version)
	},
}

func init() {
	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configInitCmd.Flags().String("name", "", "Commit author name")
	configInitCmd.Flags().String("email", "", "Commit author email")
	configCmd.AddCommand(configListCmd)

	// project subcommands
	projectCmd.AddCommand(projectCreateCmd)
	projectCreateCmd.Flags().String("name", "", "Project name")
	projectCreateCmd.Flags().String("description", "", "Project description")
	projectCreateCmd.Flags().String("language", "en", "Default content language")
	projectCreateCmd.Flags().StringSlice("languages", []string{"en"}, "Supported content languages")
	projectCmd.AddCommand(projectListCmd)
	addListFlags(projectListCmd)
	projectCmd.AddCommand(projectShowCmd)
	projectShowCmd.Flags().String("at", "", "Read at a historical commit hash")
	projectCmd.AddCommand(projectUpdateCmd)
	projectUpdateCmd.Flags().String("name", "", "Project name")
	projectUpdateCmd.Flags().String("description", "", "Project description")
	projectUpdateCmd.Flags().String("status", "", "Project status (todo, progress, done)")
	projectUpdateCmd.Flags().String("version", "", "Content version")
	projectCmd.AddCommand(projectDeleteCmd)
	projectDeleteCmd.Flags().BoolP("force", "f", false, "Delete even without a synchronized remote")
	projectCmd.AddCommand(projectCloneCmd)
	projectCmd.AddCommand(projectBranchesCmd)
	projectCmd.AddCommand(projectSwitchCmd)
	projectSwitchCmd.Flags().BoolP("create", "c", false, "Create the branch")
	projectCmd.AddCommand(projectRemoteCmd)
	projectCmd.AddCommand(projectChangesCmd)
	projectCmd.AddCommand(projectSyncCmd)
	projectCmd.AddCommand(projectSnapshotCmd)
	projectSnapshotCmd.Flags().StringP("message", "m", "", "Snapshot message")
	projectCmd.AddCommand(projectUpgradeCmd)
	projectUpgradeCmd.Flags().BoolP("force", "f", false, "Re-run the migration even when current")
	projectCmd.AddCommand(projectOutdatedCmd)
	projectCmd.AddCommand(projectExportCmd)
	projectCmd.AddCommand(projectSearchCmd)

	// collection subcommands
	collectionCmd.AddCommand(collectionCreateCmd)
	collectionCreateCmd.Flags().StringP("file", "f", "", "JSON collection definition")
	collectionCreateCmd.MarkFlagRequired("file")
	collectionCmd.AddCommand(collectionListCmd)
	addListFlags(collectionListCmd)
	collectionCmd.AddCommand(collectionShowCmd)
	collectionShowCmd.Flags().String("at", "", "Read at a historical commit hash")
	collectionCmd.AddCommand(collectionUpdateCmd)
	collectionUpdateCmd.Flags().StringP("file", "f", "", "JSON collection definition")
	collectionUpdateCmd.MarkFlagRequired("file")
	collectionCmd.AddCommand(collectionDeleteCmd)

	// entry subcommands
	entryCmd.AddCommand(entryCreateCmd)
	entryCreateCmd.Flags().StringP("file", "f", "", "JSON values file")
	entryCreateCmd.MarkFlagRequired("file")
	entryCmd.AddCommand(entryListCmd)
	addListFlags(entryListCmd)
	entryCmd.AddCommand(entryShowCmd)
	entryShowCmd.Flags().String("at", "", "Read at a historical commit hash")
	entryCmd.AddCommand(entryUpdateCmd)
	entryUpdateCmd.Flags().StringP("file", "f", "", "JSON values file")
	entryUpdateCmd.MarkFlagRequired("file")
	entryCmd.AddCommand(entryDeleteCmd)

	// asset subcommands
	assetCmd.AddCommand(assetCreateCmd)
	assetCreateCmd.Flags().String("name", "", "Asset name")
	assetCreateCmd.Flags().String("description", "", "Asset description")
	assetCmd.AddCommand(assetListCmd)
	addListFlags(assetListCmd)
	assetCmd.AddCommand(assetShowCmd)
	assetShowCmd.Flags().String("at", "", "Read at a historical commit hash")
	assetCmd.AddCommand(assetUpdateCmd)
	assetUpdateCmd.Flags().String("name", "", "Asset name")
	assetUpdateCmd.Flags().String("description", "", "Asset description")
	assetUpdateCmd.Flags().StringP("file", "f", "", "Replacement payload file")
	assetCmd.AddCommand(assetDeleteCmd)

	// root commands
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(projectCmd)
	rootCmd.AddCommand(collectionCmd)
	rootCmd.AddCommand(entryCmd)
	rootCmd.AddCommand(assetCmd)
	rootCmd.AddCommand(versionCmd)
}
