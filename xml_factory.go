package beans

import (
	"context"
	"slices"

	"github.com/xraph/beans/internal/reader"
)

// NewXMLBeanFactory loads the XML document at resource into a new
// container. The document is always read as XML, whatever its extension.
//
// Deprecated: use Load, which picks the reader by extension and accepts
// WithReader for explicit formats.
func NewXMLBeanFactory(ctx context.Context, resource string, opts ...Option) (*Container, error) {
	return Load(ctx, resource, xmlOptions(opts)...)
}

// NewXMLBeanFactoryWithParent is like NewXMLBeanFactory with parent as the
// fallback for names the document does not define.
//
// Deprecated: use Load with WithParent.
func NewXMLBeanFactoryWithParent(ctx context.Context, resource string, parent BeanFactory, opts ...Option) (*Container, error) {
	return Load(ctx, resource, xmlOptions(append([]Option{WithParent(parent)}, opts...))...)
}

func xmlOptions(opts []Option) []Option {
	return append(slices.Clone(opts), WithReader(reader.NewXMLReader()))
}
