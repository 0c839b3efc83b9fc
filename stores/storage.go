package stores

import (
	"os"
	"slideforge/core"
	"slideforge/stores/aws"
	"slideforge/stores/filesystem"
	"slideforge/stores/memory"
	"slideforge/stores/sqlite"

	"github.com/sirupsen/logrus"
)

// GetStore selects the deck store from STORAGE_TYPE. Unset or unknown
// values fall back to the in-memory store.
func GetStore() core.DeckStore {
	storageType := os.Getenv("STORAGE_TYPE")
	var store core.DeckStore

	storageField := logrus.Fields{
		"storageType": storageType,
	}

	switch storageType {
	case "filesystem":
		basePath := os.Getenv("LOCAL_STORAGE_PATH")
		if basePath == "" {
			basePath = "./data"
		}
		storageField["basePath"] = basePath
		store = filesystem.NewDeckStore(basePath)
	case "sqlite":
		dataSourceName := os.Getenv("DATA_SOURCE_NAME")
		if dataSourceName == "" {
			dataSourceName = "slideforge.db"
		}
		storageField["dataSourceName"] = dataSourceName
		store = sqlite.NewDeckStore(dataSourceName)
	case "s3":
		bucketName := os.Getenv("S3_BUCKET_NAME")
		if bucketName == "" {
			logrus.Fatal("S3_BUCKET_NAME environment variable must be set for s3 storage type")
		}
		storageField["bucketName"] = bucketName
		store = aws.NewDeckStore(bucketName)
	default:
		store = memory.NewDeckStore()
		storageField["storageType"] = "in-memory"
	}
	logrus.WithFields(storageField).Info("Use storage")
	return store
}
