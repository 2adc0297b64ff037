// Package trigger locates copy buttons in HTML pages.
package trigger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultStatusPrefix prefixes the code to form its status region identifier.
	DefaultStatusPrefix = "copy-status-"
	// DefaultButtonPrefix prefixes the code to form its button region identifier.
	DefaultButtonPrefix = "copy-button-"
	// ButtonClass marks buttons carrying their code in a data attribute.
	ButtonClass = "copy-coupon-btn"

	codeAttributeName    = "data-coupon"
	classAttributeName   = "class"
	onclickAttributeName = "onclick"
	valueAttributeName   = "value"
	defaultScanWorkers   = 4
)

// Source identifies how a trigger carries its code.
type Source string

const (
	// SourceDataAttribute is a button with class copy-coupon-btn and a data-coupon attribute.
	SourceDataAttribute Source = "data-attribute"
	// SourceInlineHandler is an element whose onclick handler writes a literal to the clipboard.
	SourceInlineHandler Source = "inline-handler"
)

// voidElements never have an end tag, so their label comes from the value attribute.
var voidElements = map[atom.Atom]bool{
	atom.Area: true, atom.Base: true, atom.Br: true, atom.Col: true, atom.Embed: true, atom.Hr: true,
	atom.Img: true, atom.Input: true, atom.Link: true, atom.Meta: true, atom.Source: true, atom.Track: true,
	atom.Wbr: true,
}

var inlineHandlerPattern = regexp.MustCompile(`navigator\.clipboard\.writeText\('([^']+)'\)`)

// Trigger is a clickable element that copies Code.
type Trigger struct {
	Code   string `json:"code"`
	Source Source `json:"source"`
	Label  string `json:"label,omitempty"`
	Path   string `json:"path,omitempty"`
}

// StatusTargetID derives the status region identifier for code.
func StatusTargetID(prefix string, code string) string {
	if prefix == "" {
		prefix = DefaultStatusPrefix
	}
	return prefix + code
}

// ButtonTargetID derives the button region identifier for code.
func ButtonTargetID(code string) string {
	return DefaultButtonPrefix + code
}

// Extract parses an HTML document and returns its triggers in document order.
func Extract(reader io.Reader) ([]Trigger, error) {
	tokenizer := html.NewTokenizer(reader)
	var triggers []Trigger
	seen := map[Trigger]struct{}{}
	var open *Trigger
	var label strings.Builder
	var openTag string
	for {
		tokenType := tokenizer.Next()
		switch tokenType {
		case html.ErrorToken:
			if errors.Is(tokenizer.Err(), io.EOF) {
				if open != nil {
					triggers = appendTrigger(triggers, seen, *open, label.String())
				}
				return triggers, nil
			}
			return nil, fmt.Errorf("parse html: %w", tokenizer.Err())
		case html.StartTagToken, html.SelfClosingTagToken:
			token := tokenizer.Token()
			candidate, found := triggerFromToken(token)
			if !found {
				continue
			}
			if open != nil {
				triggers = appendTrigger(triggers, seen, *open, label.String())
			}
			if tokenType == html.SelfClosingTagToken || voidElements[token.DataAtom] {
				triggers = appendTrigger(triggers, seen, candidate, attributeValue(token, valueAttributeName))
				open = nil
				continue
			}
			open = &candidate
			openTag = token.Data
			label.Reset()
		case html.TextToken:
			if open != nil {
				label.Write(tokenizer.Text())
			}
		case html.EndTagToken:
			if open != nil && tokenizer.Token().Data == openTag {
				triggers = appendTrigger(triggers, seen, *open, label.String())
				open = nil
			}
		}
	}
}

func appendTrigger(triggers []Trigger, seen map[Trigger]struct{}, candidate Trigger, label string) []Trigger {
	candidate.Label = strings.TrimSpace(label)
	if _, duplicate := seen[candidate]; duplicate {
		return triggers
	}
	seen[candidate] = struct{}{}
	return append(triggers, candidate)
}

func triggerFromToken(token html.Token) (Trigger, bool) {
	var classes, code, handler string
	for _, attribute := range token.Attr {
		switch attribute.Key {
		case classAttributeName:
			classes = attribute.Val
		case codeAttributeName:
			code = attribute.Val
		case onclickAttributeName:
			handler = attribute.Val
		}
	}
	if code != "" && hasClass(classes, ButtonClass) {
		return Trigger{Code: code, Source: SourceDataAttribute}, true
	}
	if match := inlineHandlerPattern.FindStringSubmatch(handler); match != nil {
		return Trigger{Code: match[1], Source: SourceInlineHandler}, true
	}
	return Trigger{}, false
}

func attributeValue(token html.Token, key string) string {
	for _, attribute := range token.Attr {
		if attribute.Key == key {
			return attribute.Val
		}
	}
	return ""
}

func hasClass(classes string, name string) bool {
	for _, className := range strings.Fields(classes) {
		if className == name {
			return true
		}
	}
	return false
}

// ScanFiles extracts triggers from every path concurrently and returns them in path order.
func ScanFiles(ctx context.Context, paths []string) ([]Trigger, error) {
	perPath := make([][]Trigger, len(paths))
	group, groupContext := errgroup.WithContext(ctx)
	group.SetLimit(defaultScanWorkers)
	for index, path := range paths {
		index, path := index, path
		group.Go(func() error {
			if err := groupContext.Err(); err != nil {
				return err
			}
			file, openErr := os.Open(path)
			if openErr != nil {
				return fmt.Errorf("open %s: %w", path, openErr)
			}
			defer file.Close()
			triggers, extractErr := Extract(file)
			if extractErr != nil {
				return fmt.Errorf("scan %s: %w", path, extractErr)
			}
			for triggerIndex := range triggers {
				triggers[triggerIndex].Path = path
			}
			perPath[index] = triggers
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	var combined []Trigger
	for _, triggers := range perPath {
		combined = append(combined, triggers...)
	}
	return combined, nil
}
