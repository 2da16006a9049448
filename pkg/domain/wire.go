package domain

// Wire-level DTOs. Field names are part of the byte-exact HTTP contract and
// must not change: clients send "pregunta" and read "respuesta".

// QuestionRequest is the JSON payload of POST /respuesta and POST /consulta.
type QuestionRequest struct {
	Pregunta string `json:"pregunta"`
}

// AnswerResponse is the JSON body returned by the specialists and passed
// through unchanged by the orchestrator.
type AnswerResponse struct {
	Respuesta string `json:"respuesta"`
}

// TokenResponse is the JSON body returned by POST /token.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}
