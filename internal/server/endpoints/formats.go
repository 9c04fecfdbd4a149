package endpoints

import (
	"net/http"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/quire/internal/api"
	"github.com/jackzampolin/quire/internal/normalize"
	"github.com/jackzampolin/quire/internal/pdftext"
	"github.com/jackzampolin/quire/internal/svcctx"
	"github.com/jackzampolin/quire/internal/types"
)

// InputFormat describes one accepted input kind.
type InputFormat struct {
	Kind       normalize.Kind `json:"kind" yaml:"kind"`
	MediaTypes []string       `json:"media_types" yaml:"media_types"`
	Extensions []string       `json:"extensions" yaml:"extensions"`
}

// OutputFormat describes one produced e-book format.
type OutputFormat struct {
	Format    types.OutputFormat `json:"format" yaml:"format"`
	MediaType string             `json:"media_type" yaml:"media_type"`
	Extension string             `json:"extension" yaml:"extension"`
}

// FormatsResponse lists what the server converts from and to.
type FormatsResponse struct {
	Inputs      []InputFormat  `json:"inputs" yaml:"inputs"`
	Outputs     []OutputFormat `json:"outputs" yaml:"outputs"`
	PDFBackends []string       `json:"pdf_backends" yaml:"pdf_backends"`
	PDFBackend  string         `json:"pdf_backend,omitempty" yaml:"pdf_backend,omitempty"`
}

// SupportedFormats describes the bundled inputs, outputs and PDF backends.
func SupportedFormats() FormatsResponse {
	resp := FormatsResponse{PDFBackends: pdftext.Backends}
	for _, kind := range normalize.Kinds {
		resp.Inputs = append(resp.Inputs, InputFormat{
			Kind:       kind,
			MediaTypes: normalize.MediaTypes(kind),
			Extensions: normalize.Extensions(kind),
		})
	}
	for _, f := range types.OutputFormats {
		resp.Outputs = append(resp.Outputs, OutputFormat{
			Format:    f,
			MediaType: f.MediaType(),
			Extension: f.Extension(),
		})
	}
	return resp
}

// FormatsEndpoint handles GET /api/formats.
type FormatsEndpoint struct{}

var _ api.Endpoint = (*FormatsEndpoint)(nil)

func (e *FormatsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/formats", e.handler
}

func (e *FormatsEndpoint) RequiresInit() bool { return false }

// handler godoc
//
//	@Summary		Supported formats
//	@Description	List accepted input kinds, output formats and PDF backends
//	@Tags			convert
//	@Produce		json
//	@Success		200	{object}	FormatsResponse
//	@Router			/api/formats [get]
func (e *FormatsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	resp := SupportedFormats()
	if cfg := svcctx.ConfigFrom(r.Context()); cfg != nil {
		resp.PDFBackend = cfg.PDF.Backend
	}
	writeJSON(w, http.StatusOK, resp)
}

func (e *FormatsEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "formats",
		Short: "List supported input and output formats",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp FormatsResponse
			if err := client.Get(cmd.Context(), "/api/formats", &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}
