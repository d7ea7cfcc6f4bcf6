package screenshotter

import (
	"strings"

	"github.com/ysmood/gson"
)

// remoteValue is the driver-independent part of a CDP Runtime.RemoteObject.
type remoteValue struct {
	Type           string
	Subtype        string
	Unserializable string
	Description    string
	Value          gson.JSON
}

func (v remoteValue) text() string {
	switch {
	case v.Unserializable != "":
		return v.Unserializable
	case v.Subtype == "null":
		return "null"
	case v.Type == "undefined":
		return "undefined"
	case !v.Value.Nil():
		return v.Value.Str()
	}
	return v.Description
}

// consoleText renders console arguments space separated, like a devtools console.
func consoleText(args []remoteValue) string {
	parts := make([]string, 0, len(args))
	for _, arg := range args {
		parts = append(parts, arg.text())
	}
	return strings.Join(parts, " ")
}

// exceptionText prefers the first line of the thrown object's description
// ("TypeError: x is undefined") over the generic "Uncaught" text.
func exceptionText(text string, exception *remoteValue) string {
	if exception == nil {
		return text
	}

	if exception.Description != "" {
		first, _, _ := strings.Cut(exception.Description, "\n")
		return first
	}

	if s := exception.text(); s != "" {
		return s
	}
	return text
}
