package internal

import (
	"icd/internal/controllers"
	"icd/internal/providers"
	"net/http"
)

func InitRoutes(apiController *controllers.ApiController) providers.RouterProviderInterface {
	routers := providers.NewRouterProvider()

	routers.Get("/detect_objects", http.HandlerFunc(apiController.UploadForm))
	routers.Post("/detect_objects", http.HandlerFunc(apiController.DetectObjects))
	routers.Get("/retrieve_result", http.HandlerFunc(apiController.RetrieveResult))
	return routers
}
