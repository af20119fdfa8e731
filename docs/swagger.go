// Package docs provides Swagger documentation for the API.
package docs

// @title AdCP Sales Agent API
// @version 1.0
// @description Creative sync and media buy management for AdCP buyers
// @termsOfService http://swagger.io/terms/

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host localhost:8080
// @BasePath /
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
