package extractor

import (
	"fmt"

	"github.com/lawndlwd/repair-bench/internal/config"
	"github.com/lawndlwd/repair-bench/internal/parser"
)

// FromConfig builds a registry with one extractor per configured language.
func FromConfig(extractors map[string]config.Extractor) (*Registry, error) {
	reg := NewRegistry()
	for tag, ex := range extractors {
		switch ex.Kind {
		case config.KindTool:
			tool, err := NewToolExtractor(ex.Command, ex.LineArg, ex.MethodArg)
			if err != nil {
				reg.Close()
				return nil, fmt.Errorf("extractor %s: %w", tag, err)
			}
			reg.Register(tag, tool)
		case config.KindRaw:
			reg.Register(tag, RawLineExtractor{})
		case config.KindTreeSitter:
			fe, err := parser.NewFunctionExtractor()
			if err != nil {
				reg.Close()
				return nil, fmt.Errorf("extractor %s: %w", tag, err)
			}
			reg.Register(tag, fe)
		default:
			reg.Close()
			return nil, fmt.Errorf("extractor %s: unknown kind %q", tag, ex.Kind)
		}
	}
	return reg, nil
}
