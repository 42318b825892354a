package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"cineref/internal/reference"
)

var titleCaser = cases.Title(language.English)

// displayKind renders a reference kind for humans: "private_post" becomes
// "Private Post".
func displayKind(kind reference.Kind) string {
	return titleCaser.String(strings.ReplaceAll(string(kind), "_", " "))
}

func printJSON(value any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}

func formatYear(year int) string {
	if year <= 0 {
		return "-"
	}
	return fmt.Sprintf("%d", year)
}
