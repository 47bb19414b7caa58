package postgresengine_test

import (
	"testing"

	"github.com/AntonStoeckl/docstore-sanitizer/docstore"
	"github.com/AntonStoeckl/docstore-sanitizer/docstore/postgresengine"
	"github.com/AntonStoeckl/docstore-sanitizer/testutil/helper/postgreswrapper"
	"github.com/AntonStoeckl/docstore-sanitizer/testutil/storetest"
)

func Test_DocumentStore_Contract(t *testing.T) {
	for _, scheme := range []docstore.IDScheme{docstore.UUIDv7Scheme{}, docstore.ULIDScheme{}} {
		t.Run(scheme.Name(), func(t *testing.T) {
			storetest.Run(t, func(t *testing.T) docstore.SeedableStore {
				wrapper := postgreswrapper.CreateWrapperWithTestConfig(t, postgresengine.WithIDScheme(scheme))
				return wrapper.GetDocumentStore()
			})
		})
	}
}
