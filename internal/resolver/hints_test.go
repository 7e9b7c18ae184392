package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/standardbeagle/magentointel/internal/buffer"
	"github.com/standardbeagle/magentointel/testhelpers"
)

func TestFindClassName(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
		ok   bool
	}{
		{"plain", "<?php\nclass Foo_Bar {}", "Foo_Bar", true},
		{"same line as tag", "<?php class Foo_Bar {}", "Foo_Bar", true},
		{"abstract final", "<?php\nabstract class A_B extends C {}", "A_B", true},
		{"first of many", "<?php\nclass First {}\nclass Second {}", "First", true},
		{"indented", "<?php\n    class Indented {}", "Indented", true},
		{"comment mention ignored", "<?php\n// this class handles orders\n", "", false},
		{"class constant ignored", "<?php\n$x = Foo::class;\n", "", false},
		{"none", "<?php\nfunction f() {}", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FindClassName(buffer.NewStringBuffer(tt.src))
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFindParentClass(t *testing.T) {
	got, ok := FindParentClass(buffer.NewStringBuffer("<?php\nclass A extends \\Mage_Core_Model_Abstract\n{\n}"))
	assert.True(t, ok)
	assert.Equal(t, "Mage_Core_Model_Abstract", got)

	_, ok = FindParentClass(buffer.NewStringBuffer("<?php\nclass A implements B {}"))
	assert.False(t, ok)

	_, ok = FindParentClass(buffer.NewStringBuffer("<?php\n// extends Foo\n"))
	assert.False(t, ok, "no class declaration means no parent")
}

func TestFindVarHint(t *testing.T) {
	src := "<?php\n" +
		"/** @var $products Mage_Catalog_Model_Resource_Product_Collection */\n" +
		"/** @var $product Mage_Catalog_Model_Product|null */\n" +
		"/** @var Mage_Sales_Model_Order $order */\n" +
		"/** @var $count int */\n" +
		"/** @var null|Mage_Core_Model_Store $store */\n"
	buf := buffer.NewStringBuffer(src)

	tests := []struct {
		variable string
		want     string
		ok       bool
	}{
		{"$product", "Mage_Catalog_Model_Product", true},
		{"$products", "Mage_Catalog_Model_Resource_Product_Collection", true},
		{"$order", "Mage_Sales_Model_Order", true},
		{"$store", "Mage_Core_Model_Store", true},
		{"$count", "", false},
		{"$missing", "", false},
		{"product", "", false},
		{"$", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.variable, func(t *testing.T) {
			got, ok := FindVarHint(buf, tt.variable)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFindReturnHint(t *testing.T) {
	src := `<?php
class Acme_Shop_Model_Cart
{
    /** @return Mage_Sales_Model_Quote */
    public function getQuote() { return $this->_quote; }

    /** @var Mage_Customer_Model_Customer */
    protected $_customer;
    public function getCustomer() {}

    /** @return Mage_Core_Model_Store */
    public function getStore()
    {
        $nested = function () { return 1; };
    }

    /** @return static */
    public function reset() {}

    /**
     * @param int $id
     * @return \Mage_Sales_Model_Order_Item|false
     */
    public function getItem($id) {}
}
`
	tokens := testhelpers.LexPHP(src)
	buf := buffer.NewStringBuffer(src)

	tests := []struct {
		name string
		want string
		ok   bool
	}{
		{"getQuote", "Mage_Sales_Model_Quote", true},
		{"getCustomer", "", false},
		{"_customer", "Mage_Customer_Model_Customer", true},
		{"_quote", "", false},
		{"getStore", "Mage_Core_Model_Store", true},
		{"reset", "Acme_Shop_Model_Cart", true},
		{"getItem", "Mage_Sales_Model_Order_Item", true},
		{"nested", "", false},
		{"unknown", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FindReturnHint(tokens, tt.name, buf)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPickClass(t *testing.T) {
	tests := map[string]string{
		"Foo":        "Foo",
		`\Foo_Bar`:   "Foo_Bar",
		"null|Foo":   "Foo",
		"false|null": "",
		"Foo[]":      "",
		"int|Foo":    "Foo",
		"":           "",
		"Foo|Bar":    "Foo",
	}
	for in, want := range tests {
		got, _ := pickClass(in)
		assert.Equal(t, want, got, in)
	}
}
