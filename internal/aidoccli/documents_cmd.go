package aidoccli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/aidoc-labs/aidoc-go/internal/api"
	"github.com/aidoc-labs/aidoc-go/internal/jobsync"
	"github.com/aidoc-labs/aidoc-go/internal/manifest"
	"github.com/aidoc-labs/aidoc-go/internal/suggest"
)

var documentsCmd = &cobra.Command{
	Use:     "documents",
	Aliases: []string{"docs"},
	Short:   "Manage documents",
}

var (
	uploadTitle       string
	uploadDescription string
	uploadManifest    string
	uploadSuggest     bool
	uploadFollow      bool
	deleteYes         bool
)

var documentsListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List your documents",
	Run: func(cmd *cobra.Command, args []string) {
		client, _, err := mustClient()
		if err != nil {
			exitWithError(cmd, err)
			return
		}
		docs, err := client.ListDocuments(cmd.Context())
		if err != nil {
			exitWithError(cmd, err)
			return
		}
		if err := writeOutput(cmd, docs); err != nil {
			exitWithError(cmd, err)
			return
		}
		if outputFormat == "json" {
			return
		}
		tw := newTable()
		fmt.Fprintf(tw, "ID\tTITLE\tDESCRIPTION\tCREATED\n")
		for _, doc := range docs {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
				shortID(doc.ID),
				doc.Title,
				doc.Description,
				formatTimestamp(doc.CreatedAt))
		}
		flushTable(tw)
	},
}

var documentsUploadCmd = &cobra.Command{
	Use:   "upload [files...]",
	Short: "Upload documents for ingestion",
	Long: `Upload sends one or more files to the backend, which ingests them in the
background. Use --manifest to drive a batch from a YAML file, --suggest to
fill missing titles and descriptions from the backend, and --follow to
watch the ingestion jobs until they finish.`,
	Run: func(cmd *cobra.Command, args []string) {
		client, _, err := mustClient()
		if err != nil {
			exitWithError(cmd, err)
			return
		}
		uploads, err := collectUploads(cmd, args)
		if err != nil {
			exitWithError(cmd, err)
			return
		}
		if len(uploads) == 0 {
			exitWithError(cmd, fmt.Errorf("nothing to upload; pass files or --manifest"))
			return
		}
		if uploadSuggest {
			newSuggestService(client).FillAll(cmd.Context(), uploads)
		}

		uploaded := map[string]string{}
		for _, upload := range uploads {
			title := upload.Title
			if title == "" {
				title = upload.Filename
			}
			doc, err := client.UploadDocument(cmd.Context(), title, upload.Description, upload.Filename, bytes.NewReader(upload.Content))
			if err != nil {
				printErrorLine("upload %s failed: %v", upload.Filename, err)
				continue
			}
			uploaded[doc.ID] = upload.Filename
			fmt.Fprintf(cmd.OutOrStdout(), "Uploaded %s as %q (%s)\n", upload.Filename, doc.Title, shortID(doc.ID))
		}
		if len(uploaded) == 0 {
			exitWithError(cmd, fmt.Errorf("no documents were uploaded"))
			return
		}
		if !uploadFollow {
			return
		}
		seeds, err := ingestionSeeds(cmd.Context(), client, uploaded)
		if err != nil {
			exitWithError(cmd, err)
			return
		}
		if len(seeds) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No ingestion jobs visible yet; check later with 'aidoc jobs list'.")
			return
		}
		if err := watchJobs(cmd, client, seeds, 0); err != nil {
			exitWithError(cmd, err)
		}
	},
}

var documentsDeleteCmd = &cobra.Command{
	Use:   "delete <document-id>",
	Short: "Delete a document",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client, _, err := mustClient()
		if err != nil {
			exitWithError(cmd, err)
			return
		}
		if !deleteYes {
			ok, err := confirmPrompt(fmt.Sprintf("Delete document %s? [y/N]: ", args[0]), cmd.InOrStdin(), cmd.OutOrStdout())
			if err != nil || !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
				return
			}
		}
		if err := client.DeleteDocument(cmd.Context(), args[0]); err != nil {
			exitWithError(cmd, err)
			return
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Document %s deleted.\n", args[0])
	},
}

var documentsSuggestCmd = &cobra.Command{
	Use:   "suggest <files...>",
	Short: "Preview metadata suggestions without uploading",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client, _, err := mustClient()
		if err != nil {
			exitWithError(cmd, err)
			return
		}
		svc := newSuggestService(client)
		tw := newTable()
		fmt.Fprintf(tw, "FILE\tTITLE\tDESCRIPTION\n")
		for _, path := range args {
			data, err := os.ReadFile(path)
			if err != nil {
				printErrorLine("%s: %v", path, err)
				continue
			}
			suggestion, err := svc.Suggest(cmd.Context(), filepath.Base(path), int64(len(data)), data)
			if err != nil {
				printErrorLine("%s: %v", path, err)
				continue
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\n", filepath.Base(path), suggestion.Title, suggestion.Description)
		}
		flushTable(tw)
	},
}

var documentsValidateCmd = &cobra.Command{
	Use:   "validate <manifest>",
	Short: "Validate an upload manifest without uploading",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		m, baseDir, raw, err := manifest.Load(args[0])
		if err != nil {
			exitWithError(cmd, err)
			return
		}
		res := manifest.Validate(m, raw, baseDir)
		if outputFormat == "json" {
			_ = printJSON(res)
			return
		}
		printManifestResult(cmd, res)
		if !res.Valid {
			exitWithError(cmd, fmt.Errorf("manifest failed validation"))
		}
	},
}

func init() {
	documentsUploadCmd.Flags().StringVar(&uploadTitle, "title", "", "Title for a single-file upload")
	documentsUploadCmd.Flags().StringVar(&uploadDescription, "description", "", "Description for the uploaded files")
	documentsUploadCmd.Flags().StringVar(&uploadManifest, "manifest", "", "Upload the documents listed in a YAML manifest")
	documentsUploadCmd.Flags().BoolVar(&uploadSuggest, "suggest", false, "Fill missing metadata from backend suggestions")
	documentsUploadCmd.Flags().BoolVar(&uploadFollow, "follow", false, "Watch ingestion jobs until they finish")
	documentsDeleteCmd.Flags().BoolVar(&deleteYes, "yes", false, "Skip the confirmation prompt")
	documentsCmd.AddCommand(documentsListCmd)
	documentsCmd.AddCommand(documentsUploadCmd)
	documentsCmd.AddCommand(documentsDeleteCmd)
	documentsCmd.AddCommand(documentsSuggestCmd)
	documentsCmd.AddCommand(documentsValidateCmd)
}

func newSuggestService(client *api.Client) *suggest.Service {
	return suggest.New(suggest.Options{
		Suggester:   client,
		Concurrency: envConfig.SuggestConcurrency,
		CacheTTL:    envConfig.SuggestCacheTTL,
	})
}

func collectUploads(cmd *cobra.Command, args []string) ([]*suggest.Upload, error) {
	if uploadManifest != "" {
		if len(args) > 0 {
			return nil, fmt.Errorf("pass files or --manifest, not both")
		}
		return manifestUploads(cmd)
	}
	if uploadTitle != "" && len(args) > 1 {
		return nil, fmt.Errorf("--title applies to a single file")
	}
	var uploads []*suggest.Upload
	for _, path := range args {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		uploads = append(uploads, &suggest.Upload{
			Filename:    filepath.Base(path),
			Size:        int64(len(data)),
			Content:     data,
			Title:       uploadTitle,
			Description: uploadDescription,
		})
	}
	return uploads, nil
}

func manifestUploads(cmd *cobra.Command) ([]*suggest.Upload, error) {
	m, baseDir, raw, err := manifest.Load(uploadManifest)
	if err != nil {
		return nil, err
	}
	res := manifest.Validate(m, raw, baseDir)
	printManifestResult(cmd, res)
	if !res.Valid {
		return nil, fmt.Errorf("manifest failed validation")
	}
	m.ApplyDefaults()
	if m.Defaults.Suggest {
		uploadSuggest = true
	}
	var uploads []*suggest.Upload
	for _, entry := range m.Documents {
		data, err := os.ReadFile(entry.Resolve(baseDir))
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", entry.Path, err)
		}
		uploads = append(uploads, &suggest.Upload{
			Filename:    filepath.Base(entry.Path),
			Size:        int64(len(data)),
			Content:     data,
			Title:       entry.Title,
			Description: entry.Description,
		})
	}
	return uploads, nil
}

func printManifestResult(cmd *cobra.Command, res manifest.Result) {
	tw := newTable()
	fmt.Fprintf(tw, "CHECK\tSTATUS\tMESSAGE\n")
	for _, check := range res.Checks {
		status := string(check.Status)
		switch check.Status {
		case manifest.StatusPass:
			status = statusGreen(status)
		case manifest.StatusWarn:
			status = statusYellow(status)
		case manifest.StatusFail:
			status = statusRed(status)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", check.Name, status, check.Message)
	}
	flushTable(tw)
	for _, msg := range res.Errors {
		printErrorLine("schema: %s", msg)
	}
}

func ingestionSeeds(ctx context.Context, client *api.Client, uploaded map[string]string) ([]jobsync.Job, error) {
	jobs, err := client.ListIngestionJobs(ctx, 100, 0)
	if err != nil {
		return nil, err
	}
	var seeds []jobsync.Job
	for _, job := range jobs {
		if _, ok := uploaded[job.DocumentID]; !ok {
			continue
		}
		seeds = append(seeds, jobsync.Job{
			ID:         job.ID,
			Kind:       jobsync.KindIngestion,
			DocumentID: job.DocumentID,
			Status:     job.Status,
		})
	}
	return seeds, nil
}
