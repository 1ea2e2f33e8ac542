package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/AlecAivazis/survey/v2"

	"github.com/n8n-tools/n8nctl/internal/jsontree"
)

const (
	editorSend     = "▶ send request"
	editorAddField = "+ add field"
	editorShowJSON = "{} show JSON"
)

// editBody runs the interactive tree editor over a request body until the
// user chooses to send. The map is edited in place and also returned.
func editBody(body map[string]any) (map[string]any, error) {
	if body == nil {
		body = make(map[string]any)
	}

	for {
		entries := jsontree.Flatten(body)

		options := []string{editorSend, editorAddField, editorShowJSON}
		for _, e := range entries {
			options = append(options, entryLabel(e))
		}

		choice := ""
		prompt := &survey.Select{
			Message:  "Request body:",
			Options:  options,
			PageSize: 15,
		}
		if err := survey.AskOne(prompt, &choice); err != nil {
			return nil, err
		}

		switch choice {
		case editorSend:
			return body, nil
		case editorShowJSON:
			data, _ := json.MarshalIndent(body, "", "  ")
			fmt.Println(string(data))
		case editorAddField:
			if err := addField(body); err != nil {
				return nil, err
			}
		default:
			entry, ok := entryByLabel(entries, choice)
			if !ok {
				continue
			}
			if err := editEntry(body, entry); err != nil {
				return nil, err
			}
		}
	}
}

func entryLabel(e jsontree.Entry) string {
	indent := strings.Repeat("  ", e.Depth)
	if e.IsObject {
		return fmt.Sprintf("%s%s:", indent, e.Key())
	}
	return fmt.Sprintf("%s%s = %v", indent, e.Key(), e.Value)
}

func entryByLabel(entries []jsontree.Entry, label string) (jsontree.Entry, bool) {
	for _, e := range entries {
		if entryLabel(e) == label {
			return e, true
		}
	}
	return jsontree.Entry{}, false
}

func addField(body map[string]any) error {
	key := ""
	if err := survey.AskOne(&survey.Input{Message: "Field name:"}, &key); err != nil {
		return err
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return nil
	}

	raw := ""
	if err := survey.AskOne(&survey.Input{Message: "Value:"}, &raw); err != nil {
		return err
	}
	body[key] = jsontree.ParseValue(raw)
	return nil
}

func editEntry(body map[string]any, entry jsontree.Entry) error {
	options := []string{"edit value", "delete", "back"}
	if entry.IsObject {
		options = []string{"add child field", "delete", "back"}
	}

	action := ""
	prompt := &survey.Select{
		Message: fmt.Sprintf("%s:", strings.Join(entry.Path, ".")),
		Options: options,
	}
	if err := survey.AskOne(prompt, &action); err != nil {
		return err
	}

	switch action {
	case "edit value":
		raw := ""
		input := &survey.Input{
			Message: "New value:",
			Default: fmt.Sprintf("%v", entry.Value),
		}
		if err := survey.AskOne(input, &raw); err != nil {
			return err
		}
		jsontree.Set(body, entry.Path, jsontree.ParseValue(raw))
	case "add child field":
		key := ""
		if err := survey.AskOne(&survey.Input{Message: "Field name:"}, &key); err != nil {
			return err
		}
		key = strings.TrimSpace(key)
		if key == "" {
			return nil
		}
		raw := ""
		if err := survey.AskOne(&survey.Input{Message: "Value:"}, &raw); err != nil {
			return err
		}
		childPath := append(append([]string{}, entry.Path...), key)
		jsontree.Set(body, childPath, jsontree.ParseValue(raw))
	case "delete":
		jsontree.Delete(body, entry.Path)
	}
	return nil
}
