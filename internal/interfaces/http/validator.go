package http

import "github.com/go-playground/validator/v10"

// validate instancia compartida del validador de structs para los bodies de
// la API. Es segura para uso concurrente.
var validate = validator.New()
