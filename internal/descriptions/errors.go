package descriptions

import "errors"

// ErrMalformedDescription wraps every validation failure of a model
// description, whether parsed from a source payload or built in code.
var ErrMalformedDescription = errors.New("descriptions: malformed model description")
