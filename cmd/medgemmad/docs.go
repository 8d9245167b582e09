package main

// General API documentation for swaggo. Regenerate docs/ with:
//
//	swag init -g cmd/medgemmad/docs.go -o docs
//
// @title           medgemma API
// @version         1.0
// @description     HTTP façade for MedGemma clinical text analysis.
//
// @contact.name   medgemma maintainers
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
