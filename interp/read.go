package interp

import (
	"io"
)

const maxLookahead = 2

// Reader turns a byte stream into syntax-annotated values. It keeps a
// two-byte lookahead buffer and tracks line and column for the syntax
// wrappers it produces.
type Reader struct {
	rt       *Runtime
	stream   io.ByteReader
	fileName string
	la       int
	laBuffer [maxLookahead]byte
	eof      bool
	line     int
	column   int
	module   *Module
}

// NewReader creates a reader for stream, attributing positions to
// fileName and interning unqualified symbols in module.
func (rt *Runtime) NewReader(stream io.ByteReader, fileName string, module *Module) *Reader {
	return &Reader{
		rt:       rt,
		stream:   stream,
		fileName: fileName,
		line:     1,
		column:   1,
		module:   module,
	}
}

// SetModule changes the module subsequent symbols are interned in.
func (r *Reader) SetModule(module *Module) { r.module = module }

const eof = -1

func (r *Reader) pop() int {
	var c int
	if r.la > 0 {
		c = int(r.laBuffer[0])
		r.la--
		for i := 0; i < r.la; i++ {
			r.laBuffer[i] = r.laBuffer[i+1]
		}
	} else {
		b, err := r.stream.ReadByte()
		if err != nil {
			r.eof = true
			return eof
		}
		c = int(b)
	}
	if c == '\n' {
		r.line++
		r.column = 1
	} else {
		r.column++
	}
	return c
}

func (r *Reader) peekn(n int) int {
	for r.la < n {
		b, err := r.stream.ReadByte()
		if err != nil {
			return eof
		}
		r.laBuffer[r.la] = b
		r.la++
	}
	return int(r.laBuffer[n-1])
}

func (r *Reader) peek() int { return r.peekn(1) }

func isWhite(c int) bool {
	return c == '\n' || c == '\r' || c == '\t' || c == ' '
}

func isDigit(c int) bool { return c >= '0' && c <= '9' }

func isDelimiter(c int) bool {
	return c == eof || isWhite(c) || c == '(' || c == ')' ||
		c == '[' || c == ']' || c == '"' || c == ';'
}

func (r *Reader) skip() {
	for {
		c := r.peek()
		if isWhite(c) {
			r.pop()
			continue
		}
		if c == ';' {
			for c != '\n' && c != eof {
				r.pop()
				c = r.peek()
			}
			continue
		}
		return
	}
}

// startPos opens a syntax wrapper at the current position.
func (r *Reader) startPos() *Syntax {
	return &Syntax{
		File:        r.fileName,
		StartLine:   r.line,
		StartColumn: r.column,
	}
}

// endPos closes a syntax wrapper at the current position.
func (r *Reader) endPos(s *Syntax) *Syntax {
	s.EndLine = r.line
	s.EndColumn = r.column
	return s
}

func (r *Reader) readNumber() (*Syntax, error) {
	syntax := r.startPos()
	sign := int64(1)
	if r.peek() == '-' {
		sign = -1
		r.pop()
	}
	var value int64
	for isDigit(r.peek()) {
		value = value*10 + int64(r.pop()-'0')
	}
	if r.peek() == '.' {
		r.pop()
		fractional := 0.0
		f := 0.1
		for isDigit(r.peek()) {
			fractional += float64(r.pop()-'0') * f
			f /= 10
		}
		syntax.Quoted = F64(float64(sign) * (float64(value) + fractional))
	} else {
		syntax.Quoted = I64(sign * value)
	}
	return r.endPos(syntax), nil
}

func (r *Reader) readString() (*Syntax, error) {
	r.pop()
	syntax := r.startPos()
	var buffer []byte
	escape := false
	for {
		c := r.peek()
		if c == eof {
			return nil, raisef(syntaxErrorName, "unexpected end of file, expected '\"'")
		}
		if escape {
			switch c {
			case 'n':
				c = '\n'
			case 'r':
				c = '\r'
			case 't':
				c = '\t'
			case '0':
				c = 0
			}
			escape = false
		} else if c == '"' {
			r.pop()
			break
		} else if c == '\\' {
			escape = true
			r.pop()
			continue
		}
		buffer = append(buffer, byte(c))
		r.pop()
	}
	syntax.Quoted = &String{Bytes: buffer}
	return r.endPos(syntax), nil
}

type symbolKind int

const (
	symbolInterned symbolKind = iota
	symbolKeyword
	symbolUninterned
)

func (r *Reader) readSymbol(kind symbolKind) (*Syntax, error) {
	syntax := r.startPos()
	var buffer []byte
	qualified := false
	for {
		c := r.peek()
		if isDelimiter(c) {
			break
		}
		if c == '\\' {
			r.pop()
			c = r.peek()
			if c == eof {
				return nil, raisef(syntaxErrorName, "unexpected end of input")
			}
		} else if c == '/' && len(buffer) != 0 {
			qualified = true
		}
		buffer = append(buffer, byte(c))
		r.pop()
	}
	name := string(buffer)
	switch {
	case kind == symbolKeyword:
		syntax.Quoted = r.rt.InternKeyword(name)
	case kind == symbolUninterned:
		syntax.Quoted = &Symbol{Name: name}
	case qualified:
		s, err := r.rt.FindSymbol(name)
		if err != nil {
			return nil, err
		}
		syntax.Quoted = s
	default:
		syntax.Quoted = r.module.InternSymbol(name)
	}
	return r.endPos(syntax), nil
}

// Read reads the next expression and wraps it in syntax.
func (r *Reader) Read() (*Syntax, error) {
	r.skip()
	c := r.peek()
	if c == eof {
		return nil, raisef(syntaxErrorName, "unexpected end of input")
	}
	if c == '.' || c == ')' || c == ']' {
		r.pop()
		return nil, raisef(syntaxErrorName, "unexpected '%c'", c)
	}
	if c == ':' {
		r.pop()
		return r.readSymbol(symbolKeyword)
	}
	if c == '\'' || c == '^' {
		syntax := r.startPos()
		r.pop()
		quoted, err := r.Read()
		if err != nil {
			return nil, err
		}
		if c == '^' {
			syntax.Quoted = &TypeQuote{Quoted: quoted}
		} else {
			syntax.Quoted = &Quote{Quoted: quoted}
		}
		return r.endPos(syntax), nil
	}
	if c == '#' {
		syntax := r.startPos()
		r.pop()
		c = r.peek()
		if c == eof {
			return nil, raisef(syntaxErrorName, "unexpected end of input")
		}
		if c == ':' {
			r.pop()
			s, err := r.readSymbol(symbolUninterned)
			if err != nil {
				return nil, err
			}
			syntax.Quoted = s.Quoted
			return r.endPos(syntax), nil
		}
		s := r.module.InternSymbol(string(rune(c)))
		macro, ok := getReadMacro(s)
		if !ok {
			return nil, raisef(syntaxErrorName, "undefined read macro: %s", s.Name)
		}
		r.pop()
		value, err := r.runReadAction(macro)
		if err != nil {
			return nil, err
		}
		syntax.Quoted = value
		return r.endPos(syntax), nil
	}
	// ( and [ both read a compound form; brackets are conventionally used
	// for binding groups.
	if c == '(' || c == '[' {
		closing := int(')')
		if c == '[' {
			closing = int(']')
		}
		syntax := r.startPos()
		r.pop()
		cells, err := r.readCells(closing)
		if err != nil {
			return nil, err
		}
		if r.peek() != closing {
			return nil, raisef(syntaxErrorName, "missing '%c'", closing)
		}
		r.pop()
		syntax.Quoted = &Vector{Cells: cells}
		return r.endPos(syntax), nil
	}
	if isDigit(c) {
		return r.readNumber()
	}
	if c == '-' && isDigit(r.peekn(2)) {
		return r.readNumber()
	}
	if c == '"' {
		return r.readString()
	}
	return r.readSymbol(symbolInterned)
}

func (r *Reader) readCells(closing int) ([]Value, error) {
	var cells []Value
	for {
		r.skip()
		c := r.peek()
		if c == eof || c == closing {
			return cells, nil
		}
		head, err := r.Read()
		if err != nil {
			return nil, err
		}
		cells = append(cells, head)
	}
}

// runReadAction interprets a read-macro action against the reader. The
// protocol is a small monadic DSL: the primitive actions read a token,
// read-return injects a value, read-ignore skips, and read-bind sequences
// an action with a function from its result to the next action.
func (r *Reader) runReadAction(action Value) (Value, error) {
	l := r.rt.lang
	for {
		d, ok := syntaxGet(action).(*Data)
		if !ok || d.Type != l.readActionType {
			return nil, raisef(syntaxErrorName, "invalid read macro action")
		}
		switch d.Tag {
		case l.readCharSymbol:
			c := r.pop()
			if c == eof {
				return nil, raisef(syntaxErrorName, "unexpected end of input")
			}
			return &String{Bytes: []byte{byte(c)}}, nil
		case l.readStringSymbol:
			s, err := r.readString()
			if err != nil {
				return nil, err
			}
			return s.Quoted, nil
		case l.readSymbolSymbol:
			s, err := r.readSymbol(symbolInterned)
			if err != nil {
				return nil, err
			}
			return s.Quoted, nil
		case l.readIntSymbol:
			s, err := r.readNumber()
			if err != nil {
				return nil, err
			}
			return s.Quoted, nil
		case l.readAnySymbol:
			s, err := r.Read()
			if err != nil {
				return nil, err
			}
			return s, nil
		case l.readIgnoreSymbol:
			return unit, nil
		case l.readReturnSymbol:
			return d.Fields[0], nil
		case l.readBindSymbol:
			inner, err := r.runReadAction(d.Fields[0])
			if err != nil {
				return nil, err
			}
			scope := UseModule(r.module)
			next, err := apply(d.Fields[1], []Value{inner}, scope)
			if err != nil {
				return nil, err
			}
			action = next
		default:
			return nil, raisef(syntaxErrorName, "invalid read macro action")
		}
	}
}
