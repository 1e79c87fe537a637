// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-testament.
//
// go-testament is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// OutputFormat defines the output format type
type OutputFormat string

const (
	OutputFormatText OutputFormat = "text"
	OutputFormatJSON OutputFormat = "json"
	OutputFormatYAML OutputFormat = "yaml"
)

// EncryptResult describes the parcels written by encrypt.
type EncryptResult struct {
	WillID      string   `json:"will_id" yaml:"will_id"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Directory   string   `json:"directory" yaml:"directory"`
	MinFloating int      `json:"min_floating" yaml:"min_floating"`
	Required    []string `json:"required" yaml:"required"`
	Floating    []string `json:"floating" yaml:"floating"`
	Files       []string `json:"files" yaml:"files"`
}

// DecryptResult describes a successful reconstruction.
type DecryptResult struct {
	WillID  string `json:"will_id" yaml:"will_id"`
	Output  string `json:"output" yaml:"output"`
	Bytes   int    `json:"bytes" yaml:"bytes"`
	Parcels int    `json:"parcels" yaml:"parcels"`
}

// ParcelInfo is what inspect reports for one parcel file. It never holds
// key material.
type ParcelInfo struct {
	File           string    `json:"file" yaml:"file"`
	Role           string    `json:"role" yaml:"role"`
	Custodian      string    `json:"custodian" yaml:"custodian"`
	Ordinal        int       `json:"ordinal" yaml:"ordinal"`
	WillID         string    `json:"will_id" yaml:"will_id"`
	Description    string    `json:"description,omitempty" yaml:"description,omitempty"`
	CreatedAt      time.Time `json:"created_at" yaml:"created_at"`
	FloaterCount   int       `json:"floater_count,omitempty" yaml:"floater_count,omitempty"`
	Variants       int       `json:"variants,omitempty" yaml:"variants,omitempty"`
	CiphertextSize int       `json:"ciphertext_size,omitempty" yaml:"ciphertext_size,omitempty"`
	VariantSize    int       `json:"variant_size,omitempty" yaml:"variant_size,omitempty"`
}

// VersionInfo is printed by the version command.
type VersionInfo struct {
	Version   string `json:"version" yaml:"version"`
	Commit    string `json:"commit" yaml:"commit"`
	BuildDate string `json:"build_date" yaml:"build_date"`
	GoVersion string `json:"go_version" yaml:"go_version"`
	OS        string `json:"os" yaml:"os"`
	Arch      string `json:"arch" yaml:"arch"`
}

// Printer handles formatted output
type Printer struct {
	format OutputFormat
	writer io.Writer
}

// NewPrinter creates a new Printer
func NewPrinter(format string, writer io.Writer) *Printer {
	return &Printer{
		format: OutputFormat(strings.ToLower(format)),
		writer: writer,
	}
}

// PrintEncryptResult prints the outcome of encrypt
func (p *Printer) PrintEncryptResult(r *EncryptResult) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(r)
	case OutputFormatYAML:
		return p.printYAML(r)
	case OutputFormatText:
		fmt.Fprintf(p.writer, "Will ID:      %s\n", r.WillID)
		if r.Description != "" {
			fmt.Fprintf(p.writer, "Description:  %s\n", r.Description)
		}
		fmt.Fprintf(p.writer, "Directory:    %s\n", r.Directory)
		fmt.Fprintf(p.writer, "Required:     %s\n", listOrNone(r.Required))
		fmt.Fprintf(p.writer, "Floating:     %s (any %d)\n", listOrNone(r.Floating), r.MinFloating)
		fmt.Fprintln(p.writer, "Parcels:")
		for _, f := range r.Files {
			fmt.Fprintf(p.writer, "  - %s\n", f)
		}
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintDecryptResult prints the outcome of decrypt
func (p *Printer) PrintDecryptResult(r *DecryptResult) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(r)
	case OutputFormatYAML:
		return p.printYAML(r)
	case OutputFormatText:
		fmt.Fprintf(p.writer, "Recovered %d bytes of will %s from %d parcels into %s\n",
			r.Bytes, r.WillID, r.Parcels, r.Output)
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintParcels prints inspect output
func (p *Printer) PrintParcels(parcels []*ParcelInfo) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(map[string]interface{}{
			"parcels": parcels,
		})
	case OutputFormatYAML:
		return p.printYAML(map[string]interface{}{
			"parcels": parcels,
		})
	case OutputFormatText:
		for i, info := range parcels {
			if i > 0 {
				fmt.Fprintln(p.writer)
			}
			fmt.Fprintf(p.writer, "File:         %s\n", info.File)
			fmt.Fprintf(p.writer, "Role:         %s\n", info.Role)
			fmt.Fprintf(p.writer, "Custodian:    %s\n", info.Custodian)
			fmt.Fprintf(p.writer, "Ordinal:      %d\n", info.Ordinal)
			fmt.Fprintf(p.writer, "Will ID:      %s\n", info.WillID)
			if info.Description != "" {
				fmt.Fprintf(p.writer, "Description:  %s\n", info.Description)
			}
			fmt.Fprintf(p.writer, "Created:      %s\n", info.CreatedAt.UTC().Format(time.RFC3339))
			if info.FloaterCount > 0 {
				fmt.Fprintf(p.writer, "Floaters:     %d\n", info.FloaterCount)
				fmt.Fprintf(p.writer, "Variants:     %d x %d bytes\n", info.Variants, info.VariantSize)
				fmt.Fprintf(p.writer, "Ciphertext:   %d bytes\n", info.CiphertextSize)
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintVersion prints build information
func (p *Printer) PrintVersion(v *VersionInfo) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(v)
	case OutputFormatYAML:
		return p.printYAML(v)
	case OutputFormatText:
		fmt.Fprintf(p.writer, "testament version %s\n", v.Version)
		fmt.Fprintf(p.writer, "Git commit: %s\n", v.Commit)
		fmt.Fprintf(p.writer, "Build date: %s\n", v.BuildDate)
		fmt.Fprintf(p.writer, "Go version: %s\n", v.GoVersion)
		fmt.Fprintf(p.writer, "OS/Arch: %s/%s\n", v.OS, v.Arch)
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintError prints an error message
func (p *Printer) PrintError(err error) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(map[string]interface{}{
			"status": "error",
			"error":  err.Error(),
		})
	case OutputFormatYAML:
		return p.printYAML(map[string]interface{}{
			"status": "error",
			"error":  err.Error(),
		})
	default:
		fmt.Fprintf(p.writer, "Error: %v\n", err)
		return nil
	}
}

// printJSON prints data as JSON
func (p *Printer) printJSON(data interface{}) error {
	encoder := json.NewEncoder(p.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// printYAML prints data as YAML
func (p *Printer) printYAML(data interface{}) error {
	encoder := yaml.NewEncoder(p.writer)
	encoder.SetIndent(2)
	if err := encoder.Encode(data); err != nil {
		return err
	}
	return encoder.Close()
}

func listOrNone(names []string) string {
	if len(names) == 0 {
		return "(none)"
	}
	return strings.Join(names, ", ")
}
