package pgquote

import (
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestIdent(t *testing.T) {
	c := qt.New(t)

	c.Run("bare lowercase identifier is unquoted", func(c *qt.C) {
		c.Assert(Ident("users"), qt.Equals, "users")
		c.Assert(Ident("user_id_2"), qt.Equals, "user_id_2")
	})

	c.Run("mixed case requires quoting", func(c *qt.C) {
		c.Assert(Ident("Users"), qt.Equals, `"Users"`)
	})

	c.Run("leading digit requires quoting", func(c *qt.C) {
		c.Assert(Ident("2fast"), qt.Equals, `"2fast"`)
	})

	c.Run("reserved word requires quoting", func(c *qt.C) {
		c.Assert(Ident("table"), qt.Equals, `"table"`)
		c.Assert(Ident("select"), qt.Equals, `"select"`)
	})

	c.Run("non-reserved keyword-ish word stays bare", func(c *qt.C) {
		c.Assert(Ident("name"), qt.Equals, "name")
	})

	c.Run("embedded quote is doubled", func(c *qt.C) {
		c.Assert(Ident(`weird"name`), qt.Equals, `"weird""name"`)
	})

	c.Run("empty string is quoted", func(c *qt.C) {
		c.Assert(Ident(""), qt.Equals, `""`)
	})
}

func TestQualifiedNameAndColumnRef(t *testing.T) {
	c := qt.New(t)
	c.Assert(QualifiedName("public", "users"), qt.Equals, "public.users")
	c.Assert(QualifiedName("public", "Users"), qt.Equals, `public."Users"`)
	c.Assert(ColumnRef("public", "users", "id"), qt.Equals, "public.users.id")
}

func TestLiteral(t *testing.T) {
	c := qt.New(t)
	c.Assert(Literal("hello"), qt.Equals, "'hello'")
	c.Assert(Literal("it's"), qt.Equals, "'it''s'")
}

func TestDollarQuote(t *testing.T) {
	c := qt.New(t)

	c.Run("plain body uses default tag", func(c *qt.C) {
		c.Assert(DollarQuote("select 1"), qt.Equals, "$body$select 1$body$")
	})

	c.Run("body containing default tag falls back to numbered tag", func(c *qt.C) {
		body := "select '$body$'"
		got := DollarQuote(body)
		c.Assert(got, qt.Equals, "$body_0$"+body+"$body_0$")
	})
}

func TestIdents(t *testing.T) {
	c := qt.New(t)
	got := Idents([]string{"id", "Name", "select"})
	c.Assert(got, qt.DeepEquals, []string{"id", `"Name"`, `"select"`})
}
