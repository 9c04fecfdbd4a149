package endpoints

import (
	"net/http"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/quire/internal/api"
	"github.com/jackzampolin/quire/internal/convert"
	"github.com/jackzampolin/quire/internal/svcctx"
)

// PreviewEndpoint handles POST /api/preview.
type PreviewEndpoint struct{}

var _ api.Endpoint = (*PreviewEndpoint)(nil)

func (e *PreviewEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/preview", e.handler
}

func (e *PreviewEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Preview a document
//	@Description	Normalize an uploaded document and return its HTML or Markdown
//	@Tags			convert
//	@Accept			mpfd
//	@Produce		json
//	@Param			file		formData	file	true	"PDF, HTML or DOCX document"
//	@Param			title		formData	string	false	"Book title"
//	@Param			markdown	formData	bool	false	"Render as Markdown"
//	@Param			sanitize	formData	bool	false	"Sanitize the HTML"
//	@Success		200			{object}	convert.Preview
//	@Failure		400			{object}	ErrorResponse
//	@Failure		415			{object}	ErrorResponse
//	@Failure		422			{object}	ErrorResponse
//	@Router			/api/preview [post]
func (e *PreviewEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	in, err := readUpload(w, r)
	if err != nil {
		writeUploadError(w, err)
		return
	}
	defer r.MultipartForm.RemoveAll()

	ctx := r.Context()
	var opts convert.PreviewOptions
	if cfg := svcctx.ConfigFrom(ctx); cfg != nil {
		opts = cfg.Preview
	}
	if opts.Markdown, err = formBool(r, "markdown", opts.Markdown); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if opts.Sanitize, err = formBool(r, "sanitize", opts.Sanitize); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	preview, err := svcctx.ConverterFrom(ctx).Preview(ctx, convert.Request{
		Input: in,
		Title: r.FormValue("title"),
	}, opts)
	if err != nil {
		svcctx.LoggerFrom(ctx).Warn("preview failed", "file", in.Name, "error", err)
		writeError(w, errorStatus(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, preview)
}

func (e *PreviewEndpoint) Command(getServerURL func() string) *cobra.Command {
	var (
		title    string
		markdown bool
		sanitize bool
	)
	cmd := &cobra.Command{
		Use:   "preview <file>",
		Short: "Show the normalized HTML the server would package",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fields := map[string]string{"title": title}
			if cmd.Flags().Changed("markdown") {
				fields["markdown"] = strconv.FormatBool(markdown)
			}
			if cmd.Flags().Changed("sanitize") {
				fields["sanitize"] = strconv.FormatBool(sanitize)
			}
			form, err := fileForm(args[0], fields)
			if err != nil {
				return err
			}

			client := api.NewClient(getServerURL())
			var resp convert.Preview
			if err := client.PostForm(cmd.Context(), "/api/preview", form, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().StringVarP(&title, "title", "t", "", "book title")
	cmd.Flags().BoolVar(&markdown, "markdown", false, "render as Markdown")
	cmd.Flags().BoolVar(&sanitize, "sanitize", false, "sanitize the HTML")
	return cmd
}
