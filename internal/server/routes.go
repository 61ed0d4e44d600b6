package server

import (
	"net/http"
)

func SetupRoutes(operationService *OperationService) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /operations", operationService.GetOperations)
	mux.HandleFunc("PUT /operations", operationService.PutOperation)
	mux.HandleFunc("GET /operations/export.csv", operationService.ExportOperations)
	mux.HandleFunc("GET /healthz", operationService.Healthz)

	return mux
}
