package interp

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Write prints value to w the way the reader would read it back. Values
// without a literal syntax print as #<...> forms.
func Write(value Value, w io.Writer, module *Module) error {
	p := &printer{w: w, module: module}
	p.writeValue(value)
	return p.err
}

// WriteToString renders value relative to module.
func WriteToString(value Value, module *Module) string {
	var sb strings.Builder
	_ = Write(value, &sb, module)
	return sb.String()
}

type printer struct {
	w      io.Writer
	module *Module
	err    error
}

func (p *printer) printf(format string, args ...any) {
	if p.err == nil {
		_, p.err = fmt.Fprintf(p.w, format, args...)
	}
}

func (p *printer) writeCells(cells []Value) {
	p.printf("(")
	for i, c := range cells {
		if i != 0 {
			p.printf(" ")
		}
		p.writeValue(c)
	}
	p.printf(")")
}

func (p *printer) writeValue(value Value) {
	switch v := value.(type) {
	case Unit:
		p.printf("()")
	case I64:
		p.printf("%d", int64(v))
	case F64:
		p.printf("%s", strconv.FormatFloat(float64(v), 'f', -1, 64))
	case Func:
		p.printf("#<function>")
	case *Vector:
		p.writeCells(v.Cells)
	case *VectorSlice:
		p.writeCells(v.Cells)
	case *Array:
		p.printf("#<array>")
	case *ArraySlice:
		p.printf("#<array-slice>")
	case *ArrayBuffer:
		p.printf("#<array-buffer>")
	case *List:
		p.printf("#<list (")
		for n := v; n != nil; n = n.Tail {
			if n != v {
				p.printf(" ")
			}
			p.writeValue(n.Head)
		}
		p.printf(")>")
	case *String:
		p.printf("\"")
		for _, c := range v.Bytes {
			switch c {
			case '"', '\\':
				p.printf("\\%c", c)
			case '\n':
				p.printf("\\n")
			case '\r':
				p.printf("\\r")
			case '\t':
				p.printf("\\t")
			case 0:
				p.printf("\\0")
			default:
				p.printf("%c", c)
			}
		}
		p.printf("\"")
	case *Quote:
		p.printf("'")
		p.writeValue(v.Quoted)
	case *TypeQuote:
		p.printf("^")
		p.writeValue(v.Quoted)
	case *Continue:
		p.printf("#<continue>")
	case *WeakRef:
		p.printf("(weak ")
		p.writeValue(v.Value)
		p.printf(")")
	case *Symbol:
		p.writeSymbol(v)
	case Keyword:
		p.printf(":%s", v.Sym.Name)
	case *Data:
		if len(v.Fields) > 0 {
			p.printf("(")
			p.writeSymbol(v.Tag)
			for _, f := range v.Fields {
				p.printf(" ")
				p.writeValue(f)
			}
			p.printf(")")
		} else {
			p.writeSymbol(v.Tag)
		}
	case *Syntax:
		p.printf("#<syntax ")
		p.writeValue(v.Quoted)
		p.printf(">")
	case *Closure:
		p.printf("#<lambda>")
	case *GenFunc:
		p.printf("#<generic ")
		p.writeSymbol(v.Name)
		p.printf(">")
	case *Pointer:
		p.printf("#<")
		p.writeType(v.Type)
		p.printf(">")
	case *Type:
		p.printf("^")
		p.writeType(v)
	case *HashMap:
		p.printf("#<hash-map>")
	default:
		p.printf("#<unknown>")
	}
}

func (p *printer) writeSymbol(symbol *Symbol) {
	if symbol == nil {
		p.printf("#<undefined>")
		return
	}
	if p.module != nil && p.module.findInternal(symbol.Name) == symbol {
		p.printf("%s", symbol.Name)
		return
	}
	if symbol.Module != nil {
		p.printf("%s/%s", symbol.Module.name, symbol.Name)
	} else {
		p.printf("#:%s", symbol.Name)
	}
}

func (p *printer) writeType(t *Type) {
	if t == nil {
		p.printf("#<undefined>")
		return
	}
	switch t.Kind {
	case TypeSimple:
		if t.Name != nil {
			p.writeSymbol(t.Name)
		} else {
			p.printf("#<type>")
		}
	case TypeFunc:
		p.printf("(-> (")
		for i := 0; i < t.MinArity; i++ {
			if i != 0 {
				p.printf(" ")
			}
			p.printf("any")
		}
		if t.Variadic {
			if t.MinArity > 0 {
				p.printf(" ")
			}
			p.printf("&rest any")
		}
		p.printf(") any)")
	case TypePolyInstance:
		p.printf("(forall (")
		arity := t.Generic.Arity
		for i := 0; i < arity; i++ {
			if i != 0 {
				p.printf(" ")
			}
			if arity == 1 {
				p.printf("t")
			} else {
				p.printf("t%d", i)
			}
		}
		p.printf(") (")
		if t.Generic.Name != nil {
			p.writeSymbol(t.Generic.Name)
		} else {
			p.printf("#<generic-type>")
		}
		for i := 0; i < arity; i++ {
			if arity == 1 {
				p.printf(" t")
			} else {
				p.printf(" t%d", i)
			}
		}
		p.printf("))")
	case TypeInstance:
		p.printf("(")
		if t.Generic.Name != nil {
			p.writeSymbol(t.Generic.Name)
		} else {
			p.printf("#<generic-type>")
		}
		for _, param := range t.Params {
			p.printf(" ")
			p.writeType(param)
		}
		p.printf(")")
	case TypePolyVar:
		p.printf("t%d", t.Index)
	}
}

// writeTypeString renders a type relative to module.
func writeTypeString(t *Type, module *Module) string {
	var sb strings.Builder
	p := &printer{w: &sb, module: module}
	p.writeType(t)
	return sb.String()
}

// writeTypeArray renders a type vector for error messages.
func writeTypeArray(types []*Type, module *Module) string {
	var sb strings.Builder
	p := &printer{w: &sb, module: module}
	for i, t := range types {
		if i != 0 {
			p.printf(" ")
		}
		p.writeType(t)
	}
	return sb.String()
}
