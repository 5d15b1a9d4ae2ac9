package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/stacklok/component-registry-server/internal/catalog"
	"github.com/stacklok/component-registry-server/internal/resolver"
	"github.com/stacklok/component-registry-server/internal/validators"
)

const (
	statusOK        = "ok"
	statusNoFiles   = "no files"
	statusInvalid   = "invalid"
	statusReadError = "read error"
	statusNotFound  = "not found"
)

// checkResult is the outcome of checking one catalog entry
type checkResult struct {
	Name   string
	Status string
	Files  int
	Detail string
}

func (r checkResult) failed() bool {
	return r.Status != statusOK && r.Status != statusNoFiles
}

func newValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [name...]",
		Short: "Validate catalog items and their files",
		Long: `Validate loads the catalog, checks every entry (or only the named ones)
against the item schema and reads each item's files. It exits non-zero if
any entry is invalid, missing or has unreadable files.`,
		RunE: runValidate,
	}
	cmd.Flags().String("config", "", "Path to configuration file (YAML format)")
	cmd.Flags().StringSlice("match", nil, "Only check entries whose name matches one of these glob patterns")
	cmd.Flags().StringSlice("exclude", nil, "Skip entries whose name matches one of these glob patterns")
	return cmd
}

func runValidate(cmd *cobra.Command, names []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadConfig(configPath(cmd))
	if err != nil {
		return err
	}

	include, _ := cmd.Flags().GetStringSlice("match")
	exclude, _ := cmd.Flags().GetStringSlice("exclude")
	var filter *catalog.NameFilter
	if len(include) > 0 || len(exclude) > 0 {
		if filter, err = catalog.NewNameFilter(include, exclude); err != nil {
			return err
		}
	}

	loader := catalog.NewFileLoader(cfg.GetCatalogPath())
	idx, err := loader.Load(ctx)
	if err != nil {
		return err
	}

	results := checkCatalog(ctx, idx,
		validators.NewItemValidator(),
		resolver.NewFileResolver(os.DirFS(cfg.GetFilesRoot())),
		names, filter)

	if err := renderResults(cmd.OutOrStdout(), results); err != nil {
		return fmt.Errorf("failed to render results: %w", err)
	}

	failed := 0
	for _, r := range results {
		if r.failed() {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d catalog entries failed validation", failed, len(results))
	}
	return nil
}

// checkCatalog validates and resolves the named entries, or the entries
// selected by filter in catalog order when names is empty
func checkCatalog(
	ctx context.Context,
	idx *catalog.Index,
	validator validators.ItemValidator,
	res resolver.FileResolver,
	names []string,
	filter *catalog.NameFilter,
) []checkResult {
	var entries []catalog.Entry
	var results []checkResult

	if len(names) == 0 {
		entries = idx.Filter(filter)
	} else {
		for _, name := range names {
			entry, ok := idx.Lookup(name)
			if !ok {
				results = append(results, checkResult{Name: name, Status: statusNotFound})
				continue
			}
			entries = append(entries, entry)
		}
	}

	for i, entry := range entries {
		name := entry.Name
		if name == "" {
			name = "<unnamed #" + strconv.Itoa(i) + ">"
		}
		results = append(results, checkEntry(ctx, name, entry, validator, res))
	}
	return results
}

func checkEntry(
	ctx context.Context,
	name string,
	entry catalog.Entry,
	validator validators.ItemValidator,
	res resolver.FileResolver,
) checkResult {
	item, err := validator.ValidateItem(entry.Raw)
	if err != nil {
		status := statusInvalid
		if !errors.Is(err, validators.ErrInvalidItem) {
			status = "error"
		}
		return checkResult{Name: name, Status: status, Detail: err.Error()}
	}

	if !item.HasFiles() {
		return checkResult{Name: name, Status: statusNoFiles}
	}

	if _, err := res.Resolve(ctx, item.Files); err != nil {
		return checkResult{Name: name, Status: statusReadError, Files: len(item.Files), Detail: err.Error()}
	}
	return checkResult{Name: name, Status: statusOK, Files: len(item.Files)}
}

func renderResults(w io.Writer, results []checkResult) error {
	table := tablewriter.NewWriter(w)
	table.Header("Name", "Status", "Files", "Detail")
	for _, r := range results {
		if err := table.Append([]string{r.Name, r.Status, strconv.Itoa(r.Files), r.Detail}); err != nil {
			return err
		}
	}
	return table.Render()
}
