package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	domainagg "github.com/yungbote/greenlight-backend/internal/domain/aggregates"
	"github.com/yungbote/greenlight-backend/internal/observability"
	"github.com/yungbote/greenlight-backend/internal/pkg/logger"
)

// ImportService seeds curriculum sets from YAML outlines:
//
//	name: 중1-1
//	items:
//	  - name: 1. 소인수분해
//	    children:
//	      - name: 소수와 합성수
//	        leaf: true
type ImportService interface {
	ImportYAML(ctx context.Context, r io.Reader) (domainagg.ImportSetResult, error)
	ImportFile(ctx context.Context, path string) (domainagg.ImportSetResult, error)
}

type importService struct {
	log *logger.Logger
	agg domainagg.CurriculumAggregate
}

func NewImportService(log *logger.Logger, agg domainagg.CurriculumAggregate) ImportService {
	return &importService{log: log.With("service", "ImportService"), agg: agg}
}

// DecodeOutline parses one outline document, rejecting unknown keys.
func DecodeOutline(r io.Reader) (domainagg.ImportSetInput, error) {
	var in domainagg.ImportSetInput
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&in); err != nil {
		if errors.Is(err, io.EOF) {
			return in, invalid("curriculum.import", "outline is empty")
		}
		return in, invalid("curriculum.import", fmt.Sprintf("decode outline: %v", err))
	}
	if strings.TrimSpace(in.Name) == "" {
		return in, invalid("curriculum.import", "outline needs a name")
	}
	return in, nil
}

func (s *importService) ImportYAML(ctx context.Context, r io.Reader) (_ domainagg.ImportSetResult, err error) {
	ctx, span := observability.StartSpan(ctx, "curriculum.import_set")
	defer func() { observability.EndSpan(span, err) }()

	in, err := DecodeOutline(r)
	if err != nil {
		return domainagg.ImportSetResult{}, err
	}
	res, err := s.agg.ImportSet(ctx, in)
	if err != nil {
		return res, err
	}
	s.log.Info("curriculum imported", "set_id", res.Set.ID, "name", res.Set.Name, "items", len(res.Items))
	return res, nil
}

func (s *importService) ImportFile(ctx context.Context, path string) (domainagg.ImportSetResult, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return domainagg.ImportSetResult{}, fmt.Errorf("read outline %s: %w", path, err)
	}
	return s.ImportYAML(ctx, bytes.NewReader(raw))
}
