package models

import "encoding/json"

// TriviaQuestion is served to clients as-is; the server never inspects it
type TriviaQuestion = json.RawMessage
