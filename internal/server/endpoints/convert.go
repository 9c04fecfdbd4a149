package endpoints

import (
	"fmt"
	"mime"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/quire/internal/api"
	"github.com/jackzampolin/quire/internal/convert"
	"github.com/jackzampolin/quire/internal/svcctx"
	"github.com/jackzampolin/quire/internal/types"
)

// Response headers describing a conversion alongside the artifact bytes.
const (
	HeaderTitle = "X-Quire-Title"
	HeaderKind  = "X-Quire-Kind"
	HeaderPages = "X-Quire-Pages"
)

// ConvertEndpoint handles POST /api/convert.
type ConvertEndpoint struct{}

var _ api.Endpoint = (*ConvertEndpoint)(nil)

func (e *ConvertEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/convert", e.handler
}

func (e *ConvertEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Convert a document
//	@Description	Convert an uploaded document and return the e-book as an attachment
//	@Tags			convert
//	@Accept			mpfd
//	@Produce		application/epub+zip,application/x-mobi8-ebook
//	@Param			file	formData	file	true	"PDF, HTML or DOCX document"
//	@Param			title	formData	string	false	"Book title (derived from the document if not provided)"
//	@Param			format	formData	string	false	"Output format: epub or azw3"
//	@Success		200		{file}		file
//	@Failure		400		{object}	ErrorResponse
//	@Failure		413		{object}	ErrorResponse
//	@Failure		415		{object}	ErrorResponse
//	@Failure		422		{object}	ErrorResponse
//	@Failure		503		{object}	ErrorResponse
//	@Router			/api/convert [post]
func (e *ConvertEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	in, err := readUpload(w, r)
	if err != nil {
		writeUploadError(w, err)
		return
	}
	defer r.MultipartForm.RemoveAll()

	rawFormat := r.FormValue("format")
	format, ok := types.ParseOutputFormat(rawFormat)
	if !ok {
		format = types.OutputFormat(strings.ToLower(rawFormat))
	}

	ctx := r.Context()
	res, err := svcctx.ConverterFrom(ctx).Convert(ctx, convert.Request{
		Input:  in,
		Title:  r.FormValue("title"),
		Format: format,
	})
	if err != nil {
		svcctx.LoggerFrom(ctx).Warn("conversion failed", "file", in.Name, "error", err)
		writeError(w, errorStatus(err), err.Error())
		return
	}

	w.Header().Set("Content-Type", res.Artifact.MediaType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": res.Artifact.Name}))
	w.Header().Set("Content-Length", strconv.Itoa(res.Artifact.Size()))
	w.Header().Set(HeaderTitle, res.Title)
	w.Header().Set(HeaderKind, string(res.Kind))
	if res.Pages > 0 {
		w.Header().Set(HeaderPages, strconv.Itoa(res.Pages))
	}
	w.WriteHeader(http.StatusOK)
	w.Write(res.Artifact.Data)
}

func (e *ConvertEndpoint) Command(getServerURL func() string) *cobra.Command {
	var (
		format string
		title  string
		out    string
	)
	cmd := &cobra.Command{
		Use:   "convert <file>",
		Short: "Convert a document on the server and download the e-book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			form, err := fileForm(args[0], map[string]string{
				"format": format,
				"title":  title,
			})
			if err != nil {
				return err
			}

			client := api.NewClient(getServerURL())
			artifact, err := client.Download(cmd.Context(), "/api/convert", form)
			if err != nil {
				return err
			}

			path := out
			if path == "" {
				path = artifact.Name
			}
			if path == "" {
				return fmt.Errorf("server did not name the artifact; use --out")
			}
			if err := os.WriteFile(path, artifact.Data, 0o644); err != nil {
				return fmt.Errorf("failed to write file: %w", err)
			}

			cmd.Printf("Downloaded to: %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", string(types.FormatEPUB), "output format: epub or azw3")
	cmd.Flags().StringVarP(&title, "title", "t", "", "book title (derived from the document if not set)")
	cmd.Flags().StringVar(&out, "out", "", "output file path (default: the artifact name)")
	return cmd
}
