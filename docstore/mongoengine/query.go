package mongoengine

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/AntonStoeckl/docstore-sanitizer/docstore"
)

const (
	opOr      = "$or"
	opAnd     = "$and"
	opNor     = "$nor"
	opIn      = "$in"
	opNin     = "$nin"
	opNe      = "$ne"
	opGte     = "$gte"
	opLte     = "$lte"
	opRegex   = "$regex"
	opExists  = "$exists"
	opType    = "$type"
	opExpr    = "$expr"
	opConvert = "$convert"

	bsonTypeNull   = "null"
	bsonTypeString = "string"
	bsonTypeDate   = "date"
	regexOptions   = "i"
)

// compileCondition translates a condition tree into a MongoDB query document.
func compileCondition(c docstore.Condition) (bson.D, error) {
	switch c.Kind() {
	case docstore.MatchAll:
		return bson.D{}, nil

	case docstore.AnyOf, docstore.AllOf:
		if len(c.Children()) == 0 {
			if c.Kind() == docstore.AnyOf {
				return matchNothing(), nil
			}
			return bson.D{}, nil
		}

		children := make(bson.A, 0, len(c.Children()))
		for _, child := range c.Children() {
			compiled, err := compileCondition(child)
			if err != nil {
				return nil, err
			}
			children = append(children, compiled)
		}

		if c.Kind() == docstore.AnyOf {
			return bson.D{{Key: opOr, Value: children}}, nil
		}
		return bson.D{{Key: opAnd, Value: children}}, nil

	case docstore.Not:
		if len(c.Children()) != 1 {
			return nil, docstore.ErrInvalidFilter
		}
		compiled, err := compileCondition(c.Children()[0])
		if err != nil {
			return nil, err
		}
		return bson.D{{Key: opNor, Value: bson.A{compiled}}}, nil

	case docstore.FieldEquals:
		return bson.D{{Key: c.Field(), Value: bson.D{{Key: opIn, Value: idCandidates(c.Value())}}}}, nil

	case docstore.FieldMatchesPattern:
		return bson.D{{Key: c.Field(), Value: bson.D{
			{Key: opRegex, Value: primitive.Regex{Pattern: c.Value(), Options: regexOptions}},
		}}}, nil

	case docstore.FieldNotIn:
		return bson.D{{Key: c.Field(), Value: bson.D{
			{Key: opNe, Value: nil},
			{Key: opNin, Value: idCandidates(c.Values()...)},
		}}}, nil

	case docstore.FieldAbsent:
		return bson.D{{Key: c.Field(), Value: bson.D{{Key: opExists, Value: false}}}}, nil

	case docstore.FieldNull:
		return bson.D{{Key: c.Field(), Value: bson.D{{Key: opType, Value: bsonTypeNull}}}}, nil

	case docstore.FieldTimeBetween:
		return compileTimeBetween(c.Field(), c.From(), c.Until()), nil

	case docstore.IDMintedSince:
		if c.Scheme() == nil {
			return nil, docstore.ErrInvalidFilter
		}
		return compileMintedSince(c.Scheme(), c.From()), nil

	default:
		return nil, errors.Join(docstore.ErrInvalidFilter, fmt.Errorf("unsupported condition %s", c.Kind()))
	}
}

// matchNothing is a query no document satisfies.
func matchNothing() bson.D {
	return bson.D{{Key: docstore.IDField, Value: bson.D{{Key: opIn, Value: bson.A{}}}}}
}

// idCandidates lists every value alongside its ObjectID form if it is a valid ObjectID hex string.
func idCandidates(values ...string) bson.A {
	candidates := make(bson.A, 0, len(values)*2)

	for _, v := range values {
		candidates = append(candidates, v)
		if oid, err := primitive.ObjectIDFromHex(v); err == nil {
			candidates = append(candidates, oid)
		}
	}

	return candidates
}

// compileTimeBetween matches BSON dates and date strings within [from, until].
// Values of other types, including unparsable strings, never match.
func compileTimeBetween(field string, from, until time.Time) bson.D {
	ref := "$" + field
	converted := bson.D{{Key: opConvert, Value: bson.D{
		{Key: "input", Value: ref},
		{Key: "to", Value: bsonTypeDate},
		{Key: "onError", Value: nil},
		{Key: "onNull", Value: nil},
	}}}

	return bson.D{{Key: opExpr, Value: bson.D{{Key: opAnd, Value: bson.A{
		bson.D{{Key: opIn, Value: bson.A{bson.D{{Key: opType, Value: ref}}, bson.A{bsonTypeDate, bsonTypeString}}}},
		bson.D{{Key: opGte, Value: bson.A{converted, primitive.NewDateTimeFromTime(from)}}},
		bson.D{{Key: opLte, Value: bson.A{converted, primitive.NewDateTimeFromTime(until)}}},
	}}}}}
}

// compileMintedSince matches identifiers minted at or after since.
// String identifiers must have the scheme's shape; ObjectIDs are compared natively.
func compileMintedSince(scheme docstore.IDScheme, since time.Time) bson.D {
	bound := scheme.LowerBound(since)

	asString := bson.D{{Key: docstore.IDField, Value: bson.D{
		{Key: opType, Value: bsonTypeString},
		{Key: opRegex, Value: primitive.Regex{Pattern: scheme.Pattern()}},
		{Key: opGte, Value: bound},
	}}}

	if scheme.Name() != docstore.IDSchemeObjectID {
		return asString
	}

	oid, err := primitive.ObjectIDFromHex(bound)
	if err != nil {
		return asString
	}

	return bson.D{{Key: opOr, Value: bson.A{
		bson.D{{Key: docstore.IDField, Value: bson.D{{Key: opGte, Value: oid}}}},
		asString,
	}}}
}

// encodeDocument converts a Document into BSON, minting a missing identifier.
// With the ObjectID scheme, hex identifiers are stored as ObjectIDs.
func (ds *DocumentStore) encodeDocument(doc docstore.Document) bson.D {
	id := doc.ID()
	if id == "" {
		id = ds.idScheme.NewID(ds.now())
	}

	var storedID any = id
	if ds.idScheme.Name() == docstore.IDSchemeObjectID {
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			storedID = oid
		}
	}

	encoded := bson.D{{Key: docstore.IDField, Value: storedID}}
	for _, f := range doc.Without(docstore.IDField).Fields() {
		encoded = append(encoded, bson.E{Key: f.Key, Value: encodeValue(f.Value)})
	}

	return encoded
}

func encodeValue(value any) any {
	switch v := value.(type) {
	case docstore.Document:
		nested := make(bson.D, 0, v.Len())
		for _, f := range v.Fields() {
			nested = append(nested, bson.E{Key: f.Key, Value: encodeValue(f.Value)})
		}
		return nested
	case []any:
		items := make(bson.A, 0, len(v))
		for _, item := range v {
			items = append(items, encodeValue(item))
		}
		return items
	default:
		return v
	}
}

// decodeDocument converts a BSON document into a Document keeping the field order.
func decodeDocument(raw bson.D) docstore.Document {
	fields := make([]docstore.Field, 0, len(raw))
	for _, e := range raw {
		fields = append(fields, docstore.F(e.Key, decodeValue(e.Value)))
	}

	return docstore.NewDocument(fields...)
}

func decodeValue(value any) any {
	switch v := value.(type) {
	case bson.D:
		return decodeDocument(v)
	case bson.A:
		items := make([]any, 0, len(v))
		for _, item := range v {
			items = append(items, decodeValue(item))
		}
		return items
	case primitive.DateTime:
		return v.Time().UTC()
	case int32:
		return int64(v)
	case primitive.Null, primitive.Undefined:
		return nil
	default:
		return v
	}
}

// renderQuery renders a query document as relaxed extended JSON for logging.
func renderQuery(query bson.D) string {
	rendered, err := bson.MarshalExtJSON(query, false, false)
	if err != nil {
		return strings.TrimSpace(fmt.Sprint(query))
	}

	return string(rendered)
}
