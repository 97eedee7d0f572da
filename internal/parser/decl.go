package parser

import (
	"github.com/eduardojvieira/stc/internal/ast"
	"github.com/eduardojvieira/stc/internal/token"
)

var varBlockSections = map[token.Kind]ast.Section{
	token.VAR:        ast.SectionVar,
	token.VAR_INPUT:  ast.SectionInput,
	token.VAR_OUTPUT: ast.SectionOutput,
	token.VAR_IN_OUT: ast.SectionInOut,
	token.VAR_TEMP:   ast.SectionTemp,
	token.VAR_GLOBAL: ast.SectionGlobal,
}

// parseVarBlock parses one VAR.../END_VAR (or VAR_INPUT, VAR_OUTPUT, ...)
// section: an optional CONSTANT/RETAIN qualifier, then a list of
// declarations until END_VAR.
func (p *Parser) parseVarBlock() (*ast.VarBlock, error) {
	pos := p.tok().Pos
	section, ok := varBlockSections[p.tok().Kind]
	if !ok {
		return nil, p.errorf(pos, "expected a VAR section keyword, got %s", p.tok().Kind)
	}
	p.advance()
	isConstant := false
	isRetain := false
	for {
		if p.at(token.CONSTANT) {
			isConstant = true
			p.advance()
			continue
		}
		if p.at(token.RETAIN) {
			isRetain = true
			p.advance()
			continue
		}
		break
	}
	if isConstant {
		section = ast.SectionConstant
	}
	var decls []*ast.VarDecl
	for !p.at(token.END_VAR) {
		group, err := p.parseVarDeclGroup(isRetain)
		if err != nil {
			return nil, err
		}
		decls = append(decls, group...)
	}
	p.advance() // END_VAR
	if p.at(token.SEMICOLON) {
		p.advance()
	}
	return &ast.VarBlock{Section: section, Decls: decls, Position: pos}, nil
}

// parseVarDeclGroup parses one `name[, name]* [AT %addr] : type [:= init];`
// declaration line, sharing the type and initializer across every name.
func (p *Parser) parseVarDeclGroup(retain bool) ([]*ast.VarDecl, error) {
	var names []*ast.Identifier
	for {
		name, err := p.identifier()
		if err != nil {
			return nil, err
		}
		names = append(names, name)
		if p.at(token.COMMA) {
			p.advance()
			continue
		}
		break
	}
	ioAddr := ""
	if p.at(token.AT) {
		p.advance()
		tok, err := p.expect(token.IO_ADDRESS)
		if err != nil {
			return nil, err
		}
		ioAddr = tok.Lit
	}
	if _, err := p.expect(token.COLON); err != nil {
		return nil, err
	}
	typ, err := p.parseType()
	if err != nil {
		return nil, err
	}
	var init ast.Expression
	if p.at(token.ASSIGN) {
		p.advance()
		init, err = p.parseExpression()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(token.SEMICOLON); err != nil {
		return nil, err
	}
	decls := make([]*ast.VarDecl, len(names))
	for i, name := range names {
		decls[i] = &ast.VarDecl{
			Name:      name,
			Type:      typ,
			Init:      init,
			IOAddress: ioAddr,
			Position:  name.Position,
			Retain:    retain,
		}
	}
	return decls, nil
}

// parseVarBlocks parses zero or more consecutive VAR.../END_VAR sections
// until a body-starting or closing keyword is seen.
func (p *Parser) parseVarBlocks() ([]*ast.VarBlock, error) {
	var blocks []*ast.VarBlock
	for {
		if _, ok := varBlockSections[p.tok().Kind]; !ok {
			return blocks, nil
		}
		vb, err := p.parseVarBlock()
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, vb)
	}
}

func (p *Parser) parseFunction() (*ast.FunctionDecl, error) {
	pos := p.advance().Pos // FUNCTION
	name, err := p.identifier()
	if err != nil {
		return nil, err
	}
	var retType *ast.TypeAnnotation
	if p.at(token.COLON) {
		p.advance()
		retType, err = p.parseType()
		if err != nil {
			return nil, err
		}
	}
	blocks, err := p.parseVarBlocks()
	if err != nil {
		return nil, err
	}
	body, err := p.parseStatementList(token.END_FUNCTION)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.END_FUNCTION); err != nil {
		return nil, err
	}
	if p.at(token.SEMICOLON) {
		p.advance()
	}
	return &ast.FunctionDecl{Name: name, ReturnType: retType, VarBlocks: blocks, Body: body, Position: pos}, nil
}

func (p *Parser) parseFunctionBlock() (*ast.FunctionBlockDecl, error) {
	pos := p.advance().Pos // FUNCTION_BLOCK
	name, err := p.identifier()
	if err != nil {
		return nil, err
	}
	var extends *ast.Identifier
	if p.at(token.EXTENDS) {
		p.advance()
		extends, err = p.identifier()
		if err != nil {
			return nil, err
		}
	}
	var implements []*ast.Identifier
	if p.at(token.IMPLEMENTS) {
		p.advance()
		for {
			iface, err := p.identifier()
			if err != nil {
				return nil, err
			}
			implements = append(implements, iface)
			if p.at(token.COMMA) {
				p.advance()
				continue
			}
			break
		}
	}
	blocks, err := p.parseVarBlocks()
	if err != nil {
		return nil, err
	}
	var methods []*ast.MethodDecl
	for p.at(token.METHOD) {
		m, err := p.parseMethod()
		if err != nil {
			return nil, err
		}
		methods = append(methods, m)
	}
	body, err := p.parseStatementList(token.END_FUNCTION_BLOCK)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.END_FUNCTION_BLOCK); err != nil {
		return nil, err
	}
	if p.at(token.SEMICOLON) {
		p.advance()
	}
	return &ast.FunctionBlockDecl{
		Name: name, Extends: extends, Implements: implements,
		VarBlocks: blocks, Methods: methods, Body: body, Position: pos,
	}, nil
}

func (p *Parser) parseMethod() (*ast.MethodDecl, error) {
	pos := p.advance().Pos // METHOD
	visibility := ast.Public
	switch p.tok().Kind {
	case token.PUBLIC:
		p.advance()
	case token.PRIVATE:
		visibility = ast.Private
		p.advance()
	case token.PROTECTED:
		visibility = ast.Protected
		p.advance()
	}
	isAbstract, isFinal, isOverride := false, false, false
	for {
		switch p.tok().Kind {
		case token.ABSTRACT:
			isAbstract = true
			p.advance()
			continue
		case token.FINAL:
			isFinal = true
			p.advance()
			continue
		case token.OVERRIDE:
			isOverride = true
			p.advance()
			continue
		}
		break
	}
	name, err := p.identifier()
	if err != nil {
		return nil, err
	}
	var retType *ast.TypeAnnotation
	if p.at(token.COLON) {
		p.advance()
		retType, err = p.parseType()
		if err != nil {
			return nil, err
		}
	}
	blocks, err := p.parseVarBlocks()
	if err != nil {
		return nil, err
	}
	body, err := p.parseStatementList(token.END_METHOD)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.END_METHOD); err != nil {
		return nil, err
	}
	if p.at(token.SEMICOLON) {
		p.advance()
	}
	return &ast.MethodDecl{
		Name: name, ReturnType: retType, VarBlocks: blocks, Body: body,
		Visibility: visibility, IsAbstract: isAbstract, IsFinal: isFinal, IsOverride: isOverride,
		Position: pos,
	}, nil
}

func (p *Parser) parseProgram() (*ast.ProgramDecl, error) {
	pos := p.advance().Pos // PROGRAM
	name, err := p.identifier()
	if err != nil {
		return nil, err
	}
	blocks, err := p.parseVarBlocks()
	if err != nil {
		return nil, err
	}
	body, err := p.parseStatementList(token.END_PROGRAM)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.END_PROGRAM); err != nil {
		return nil, err
	}
	if p.at(token.SEMICOLON) {
		p.advance()
	}
	return &ast.ProgramDecl{Name: name, VarBlocks: blocks, Body: body, Position: pos}, nil
}

// parseTypeDecl parses `TYPE name : STRUCT ... END_STRUCT; END_TYPE` or
// `TYPE name : (A, B, C); END_TYPE`.
func (p *Parser) parseTypeDecl() (ast.Declaration, error) {
	p.advance() // TYPE
	name, err := p.identifier()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.COLON); err != nil {
		return nil, err
	}
	var decl ast.Declaration
	if p.at(token.STRUCT) {
		decl, err = p.parseStructBody(name)
	} else {
		decl, err = p.parseEnumBody(name)
	}
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.END_TYPE); err != nil {
		return nil, err
	}
	if p.at(token.SEMICOLON) {
		p.advance()
	}
	return decl, nil
}

func (p *Parser) parseStructBody(name *ast.Identifier) (ast.Declaration, error) {
	p.advance() // STRUCT
	var members []*ast.VarDecl
	for !p.at(token.END_STRUCT) {
		group, err := p.parseVarDeclGroup(false)
		if err != nil {
			return nil, err
		}
		members = append(members, group...)
	}
	p.advance() // END_STRUCT
	if p.at(token.SEMICOLON) {
		p.advance()
	}
	return &ast.StructDecl{Name: name, Members: members, Position: name.Position}, nil
}

func (p *Parser) parseEnumBody(name *ast.Identifier) (ast.Declaration, error) {
	if _, err := p.expect(token.LPAREN); err != nil {
		return nil, err
	}
	var values []*ast.EnumValue
	next := 0
	for {
		vname, err := p.identifier()
		if err != nil {
			return nil, err
		}
		val := next
		if p.at(token.ASSIGN) {
			p.advance()
			tok, err := p.expect(token.INT)
			if err != nil {
				return nil, err
			}
			n, err := parseIntLiteral(tok.Lit)
			if err != nil {
				return nil, p.errorf(tok.Pos, "invalid enum value %q", tok.Lit)
			}
			val = int(n)
		}
		values = append(values, &ast.EnumValue{Name: vname, Value: val})
		next = val + 1
		if p.at(token.COMMA) {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expect(token.RPAREN); err != nil {
		return nil, err
	}
	if p.at(token.SEMICOLON) {
		p.advance()
	}
	return &ast.EnumDecl{Name: name, Values: values, Position: name.Position}, nil
}

func (p *Parser) parseInterface() (*ast.InterfaceDecl, error) {
	pos := p.advance().Pos // INTERFACE
	name, err := p.identifier()
	if err != nil {
		return nil, err
	}
	var bases []*ast.Identifier
	if p.at(token.EXTENDS) {
		p.advance()
		for {
			b, err := p.identifier()
			if err != nil {
				return nil, err
			}
			bases = append(bases, b)
			if p.at(token.COMMA) {
				p.advance()
				continue
			}
			break
		}
	}
	var methods []*ast.InterfaceMethodSig
	for p.at(token.METHOD) {
		p.advance()
		mname, err := p.identifier()
		if err != nil {
			return nil, err
		}
		var ret *ast.TypeAnnotation
		if p.at(token.COLON) {
			p.advance()
			ret, err = p.parseType()
			if err != nil {
				return nil, err
			}
		}
		blocks, err := p.parseVarBlocks()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.END_METHOD); err != nil {
			return nil, err
		}
		if p.at(token.SEMICOLON) {
			p.advance()
		}
		sig := &ast.InterfaceMethodSig{Name: mname, ReturnType: ret}
		for _, vb := range blocks {
			params := make([]*ast.Parameter, 0, len(vb.Decls))
			for _, vd := range vb.Decls {
				params = append(params, &ast.Parameter{Name: vd.Name, Type: vd.Type})
			}
			switch vb.Section {
			case ast.SectionInput:
				sig.Inputs = append(sig.Inputs, params...)
			case ast.SectionOutput:
				sig.Outputs = append(sig.Outputs, params...)
			}
		}
		methods = append(methods, sig)
	}
	if _, err := p.expect(token.END_INTERFACE); err != nil {
		return nil, err
	}
	if p.at(token.SEMICOLON) {
		p.advance()
	}
	return &ast.InterfaceDecl{Name: name, Bases: bases, Methods: methods, Position: pos}, nil
}
