// Package docs provides the OpenAPI documentation of the quire server.
//
// quire API
//
//	@title			quire API
//	@version		1.0
//	@description	Converts PDF, HTML and DOCX documents to EPUB and AZW3.
//
//	@contact.name	API Support
//	@contact.url	https://github.com/jackzampolin/quire
//
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//
//	@host		localhost:8080
//	@BasePath	/
//
//	@schemes	http https
package docs

//go:generate swag init -g ../cmd/quire/serve.go -o . --parseInternal
