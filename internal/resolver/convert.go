package resolver

import (
	"context"
	"regexp"
	"strings"
)

// Magento factory methods whose string argument names the produced class
const (
	FactoryGetModel     = "getModel"
	FactoryGetSingleton = "getSingleton"
	FactoryHelper       = "helper"
)

var factoryNames = map[string]bool{
	FactoryGetModel:     true,
	FactoryGetSingleton: true,
	FactoryHelper:       true,
}

// factoryTokenPattern matches the receiver text synthesized for a factory call
var factoryTokenPattern = regexp.MustCompile(`^Mage::(getModel|getSingleton|helper)\((.*)\)$`)

// factoryToken is the receiver text recorded for Mage::factory('alias')
func factoryToken(factory, literal string) string {
	return "Mage::" + factory + "(" + literal + ")"
}

// ConvertToken turns a receiver token into a class name. The returned name
// is empty when no rule applies. Errors come only from tokenizing the full
// buffer for return hints.
func (r *Resolver) ConvertToken(ctx context.Context, text string) (string, error) {
	text = strings.TrimSpace(text)

	switch {
	case text == "":
		return "", nil
	case strings.HasPrefix(text, "$this") || text == "self" || text == "static":
		name, _ := FindClassName(r.buf)
		return name, nil
	case text == "parent":
		name, _ := FindParentClass(r.buf)
		return name, nil
	case strings.HasPrefix(text, "$"):
		name, _ := FindVarHint(r.buf, text)
		return name, nil
	case text == "Mage":
		return "Mage", nil
	}

	if m := factoryTokenPattern.FindStringSubmatch(text); m != nil {
		return ConvertFactory(m[2], m[1]), nil
	}

	tokens, err := r.bufferTokensOnce(ctx)
	if err != nil {
		return "", err
	}
	name, _ := FindReturnHint(tokens, text, r.buf)
	return name, nil
}

// ConvertFactory maps a factory alias to a class name:
//
//	getModel("catalog/product")     -> Mage_Catalog_Model_Product
//	getSingleton("core/session")    -> Mage_Core_Model_Session
//	helper("customer")              -> Mage_Customer_Helper_Data
//	helper("catalog/product_image") -> Mage_Catalog_Helper_Product_Image
//
// The alias may still carry its PHP quotes. An alias the factory cannot use
// yields "".
func ConvertFactory(alias, factory string) string {
	alias = strings.TrimSpace(alias)
	alias = strings.Trim(alias, `'"`)
	module, class, hasClass := strings.Cut(alias, "/")

	switch factory {
	case FactoryGetModel, FactoryGetSingleton:
		if module == "" || class == "" {
			return ""
		}
		return "Mage_" + CapitalizeSegments(module) + "_Model_" + CapitalizeSegments(class)
	case FactoryHelper:
		if module == "" {
			return ""
		}
		if !hasClass || class == "" {
			return "Mage_" + CapitalizeSegments(module) + "_Helper_Data"
		}
		return "Mage_" + CapitalizeSegments(module) + "_Helper_" + CapitalizeSegments(class)
	}
	return ""
}

// CapitalizeSegments upper-cases the first character of every "_" segment
// and leaves the rest of each segment untouched: "product_type_configurable"
// becomes "Product_Type_Configurable", "eav_entityType" becomes
// "Eav_EntityType".
func CapitalizeSegments(s string) string {
	segments := strings.Split(s, "_")
	for i, seg := range segments {
		if seg != "" {
			segments[i] = strings.ToUpper(seg[:1]) + seg[1:]
		}
	}
	return strings.Join(segments, "_")
}
