package app

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/blackwell-systems/gameshelf/internal/blobstore"
	"github.com/blackwell-systems/gameshelf/internal/catalog"
	"github.com/blackwell-systems/gameshelf/internal/importer"
	"github.com/blackwell-systems/gameshelf/internal/locator"
	"github.com/blackwell-systems/gameshelf/internal/scan"
	"github.com/blackwell-systems/gameshelf/internal/util"
)

var (
	alignLR  = []util.Align{util.AlignLeft, util.AlignRight}
	alignLLR = []util.Align{util.AlignLeft, util.AlignLeft, util.AlignRight}
)

func renderRecord(r *catalog.Record, codec *locator.Codec) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s\n", color.WhiteString(r.Title), color.CyanString(r.Platform))
	fmt.Fprintf(&b, "  id:        %s\n", r.ID)
	fmt.Fprintf(&b, "  owner:     %s\n", r.OwnerID)
	if r.Publisher != "" {
		fmt.Fprintf(&b, "  publisher: %s\n", r.Publisher)
	}
	if r.ReleaseYear != 0 {
		fmt.Fprintf(&b, "  year:      %d\n", r.ReleaseYear)
	}
	fmt.Fprintf(&b, "  version:   %d (updated %s)\n", r.Version, util.Ago(r.UpdatedAt))

	type slot struct{ name, loc string }
	slots := []slot{{"cover", r.Cover}, {"back cover", r.BackCover}}
	for i, s := range r.Screenshots {
		slots = append(slots, slot{fmt.Sprintf("screenshot %d", i+1), s})
	}

	var rows [][]string
	for _, s := range slots {
		if s.loc == "" {
			continue
		}
		ref := codec.Decode(s.loc)
		key := ref.Key
		if !ref.Resolved() {
			key = s.loc
		}
		rows = append(rows, []string{s.name, ref.Shape.String(), key})
	}
	if len(rows) == 0 {
		b.WriteString("  no artwork")
		return b.String()
	}
	b.WriteString(util.RenderTable([]string{"Slot", "Shape", "Key"}, rows, nil))
	return b.String()
}

func renderRecords(records []catalog.Record) string {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		year := ""
		if r.ReleaseYear != 0 {
			year = strconv.Itoa(r.ReleaseYear)
		}
		rows = append(rows, []string{
			r.ID,
			r.Title,
			r.Platform,
			year,
			strconv.Itoa(len(r.Locators())),
			strconv.FormatInt(r.Version, 10),
		})
	}
	return util.RenderTable(
		[]string{"ID", "Title", "Platform", "Year", "Assets", "Version"},
		rows,
		[]util.Align{util.AlignLeft, util.AlignLeft, util.AlignLeft, util.AlignRight, util.AlignRight, util.AlignRight},
	)
}

func objectRows(objs []blobstore.Object) [][]string {
	rows := make([][]string, 0, len(objs))
	for _, o := range objs {
		rows = append(rows, []string{o.Key + "." + o.Format, util.Bytes(o.Size)})
	}
	return rows
}

func objectKeys(objs []blobstore.Object) []string {
	keys := make([]string, 0, len(objs))
	for _, o := range objs {
		keys = append(keys, o.Key)
	}
	return keys
}

func renderFileReport(r *scan.FileReport) string {
	var b strings.Builder
	summary := [][]string{
		{"records", util.Count(r.Records)},
		{"referenced keys", util.Count(r.Expected)},
		{"blobs scanned", util.Count(r.Scanned)},
		{"ignored", util.Count(r.Ignored)},
		{"unresolvable locators", util.Count(r.Unresolvable)},
		{"orphans", util.Count(len(r.Orphans))},
	}
	if r.Global {
		summary = append(summary, []string{"misplaced (never deleted)", util.Count(len(r.Misplaced))})
	}
	b.WriteString(util.RenderTable([]string{"Files (" + string(r.Compare) + ")", "Count"}, summary, alignLR))
	if len(r.Orphans) > 0 {
		b.WriteString("\n")
		b.WriteString(util.RenderTable([]string{"Orphan", "Size"}, objectRows(r.Orphans), alignLR))
	}
	if len(r.Misplaced) > 0 {
		b.WriteString("\n")
		b.WriteString(util.RenderTable([]string{"Misplaced", "Size"}, objectRows(r.Misplaced), alignLR))
	}
	return b.String()
}

func renderFolderReport(r *scan.FolderReport) string {
	var b strings.Builder
	b.WriteString(util.RenderTable([]string{"Folders", "Count"}, [][]string{
		{"owners", util.Count(r.Owners)},
		{"folders listed", util.Count(r.Listed)},
		{"ignored", util.Count(r.Ignored)},
		{"renamed (kept)", util.Count(len(r.Renamed))},
		{"orphans", util.Count(len(r.Orphans))},
	}, alignLR))

	var rows [][]string
	for _, f := range r.Orphans {
		rows = append(rows, []string{f.Path, "orphan"})
	}
	for _, f := range r.Renamed {
		rows = append(rows, []string{f.Folder.Path, "renamed, owner " + f.OwnerID})
	}
	if len(rows) > 0 {
		b.WriteString("\n")
		b.WriteString(util.RenderTable([]string{"Folder", "Status"}, rows, nil))
	}
	return b.String()
}

func renderPruneReport(r *scan.PruneReport) string {
	var b strings.Builder
	b.WriteString(util.RenderTable([]string{"Prune", "Count"}, [][]string{
		{"folders visited", util.Count(r.Visited)},
		{"empty", util.Count(len(r.Empty))},
	}, alignLR))
	if len(r.Empty) > 0 {
		rows := make([][]string, 0, len(r.Empty))
		for i, p := range r.Empty {
			rows = append(rows, []string{strconv.Itoa(i + 1), p})
		}
		b.WriteString("\n")
		b.WriteString(util.RenderTable([]string{"Order", "Empty folder"}, rows, []util.Align{util.AlignRight}))
	}
	return b.String()
}

func renderRecordReport(r *scan.RecordReport) string {
	var b strings.Builder
	b.WriteString(util.RenderTable([]string{"Records", "Count"}, [][]string{
		{"owners", util.Count(r.Owners)},
		{"records", util.Count(r.Records)},
		{"orphan records", util.Count(len(r.Orphans))},
		{"inactive owners", util.Count(len(r.Inactive))},
	}, alignLR))
	if len(r.Orphans) > 0 {
		rows := make([][]string, 0, len(r.Orphans))
		for _, o := range r.Orphans {
			rows = append(rows, []string{o.ID, o.OwnerID, strconv.Itoa(len(o.Locators))})
		}
		b.WriteString("\n")
		b.WriteString(util.RenderTable([]string{"Orphan record", "Missing owner", "Assets"}, rows, alignLLR))
	}
	if len(r.Inactive) > 0 {
		rows := make([][]string, 0, len(r.Inactive))
		for _, o := range r.Inactive {
			rows = append(rows, []string{o.ID, o.DisplayName, util.Ago(o.CreatedAt)})
		}
		b.WriteString("\n")
		b.WriteString(util.RenderTable([]string{"Inactive owner", "Name", "Created"}, rows, nil))
	}
	return b.String()
}

func renderResults(results ...scan.Result) string {
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		rows = append(rows, []string{
			r.Category,
			util.Count(r.Attempted),
			util.Count(r.Deleted),
			util.Count(r.Failed),
			util.Count(r.Skipped),
		})
	}
	return util.RenderTable(
		[]string{"Category", "Attempted", "Deleted", "Failed", "Skipped"},
		rows,
		[]util.Align{util.AlignLeft, util.AlignRight, util.AlignRight, util.AlignRight, util.AlignRight},
	)
}

func renderImport(s importer.Summary, dryRun bool) string {
	title := "Import"
	if dryRun {
		title = "Import (dry run)"
	}
	return util.RenderTable([]string{title, "Count"}, [][]string{
		{"inserted", util.Count(s.Inserted)},
		{"updated", util.Count(s.Updated)},
		{"skipped", util.Count(s.Skipped)},
		{"failed", util.Count(s.Failed)},
	}, alignLR)
}

func renderPass(p *scan.Pass) string {
	var b strings.Builder
	mode := "report only"
	if p.Applied {
		mode = "applied"
	}
	fmt.Fprintf(&b, "Reconcile pass (%s) took %s\n", mode, p.Took.Round(time.Millisecond))
	if p.Files != nil {
		b.WriteString(renderFileReport(p.Files))
		b.WriteString("\n")
	}
	if p.Prune != nil {
		b.WriteString(renderPruneReport(p.Prune))
		b.WriteString("\n")
	}
	if p.Records != nil {
		b.WriteString(renderRecordReport(p.Records))
		b.WriteString("\n")
	}
	if len(p.Results) > 0 {
		b.WriteString(renderResults(p.Results...))
	}
	return b.String()
}
