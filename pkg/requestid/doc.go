// Package requestid tags each request with an id that ends up in response
// headers and, through LoggerExtractor, in every log record of the request.
package requestid
