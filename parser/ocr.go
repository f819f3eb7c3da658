package parser

import (
	"context"
	"fmt"

	"github.com/otiai10/gosseract/v2"

	"github.com/tbellem/finrep/model"
)

// ocrPageSize is the synthetic page size assigned to image inputs,
// which carry no coordinate system of their own.
const ocrPageSize = 1000

// OCRParser recognizes text in image files via Tesseract and returns a
// single synthetic page holding the whole recognized text as one
// full-page element. Rotation correction is left to the OCR engine.
type OCRParser struct {
	// Languages passed to Tesseract; empty means its default.
	Languages []string
}

func (p *OCRParser) SupportedFormats() []string {
	return []string{"jpg", "jpeg", "png", "tif", "tiff"}
}

func (p *OCRParser) Parse(ctx context.Context, path string) ([]*model.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	client := gosseract.NewClient()
	defer client.Close()

	if len(p.Languages) > 0 {
		if err := client.SetLanguage(p.Languages...); err != nil {
			return nil, fmt.Errorf("setting OCR language: %w", err)
		}
	}
	if err := client.SetImage(path); err != nil {
		return nil, fmt.Errorf("loading image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return nil, fmt.Errorf("recognizing text: %w", err)
	}

	page := &model.Page{
		Index:  0,
		Width:  ocrPageSize,
		Height: ocrPageSize,
		Elements: []model.Element{
			model.NewTextElement(0, 0, ocrPageSize, ocrPageSize, text),
		},
	}
	return []*model.Page{page}, nil
}
