package pipeline

import (
	"fmt"

	"gopkg.in/mgo.v2"
	"gopkg.in/mgo.v2/bson"
)

// archiveDoc is the raw pre-parse content archived for one inserted
// document, keyed by its engine-assigned id.
type archiveDoc struct {
	ID_      bson.ObjectId `bson:"_id"`
	DocID    uint32        `bson:"doc_id"`
	DocKey   string        `bson:"doc_key"`
	Content  []byte        `bson:"content"`
	Recorded int64         `bson:"recorded"`
}

// MongoArchive archives the raw content behind every inserted document,
// separately from the packed postings the primary store holds, so a
// document can be re-parsed and re-indexed after a codec change or a
// disaster-recovery restore.
type MongoArchive struct {
	session    *mgo.Session
	dbName     string
	collection string
}

// NewMongoArchive dials url and returns an archive writing into
// dbName.collection.
func NewMongoArchive(url, dbName, collection string) (*MongoArchive, error) {
	session, err := mgo.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("pipeline: dial mongo: %w", err)
	}
	if err := session.Ping(); err != nil {
		session.Close()
		return nil, fmt.Errorf("pipeline: ping mongo: %w", err)
	}
	session.SetMode(mgo.Monotonic, true)
	return &MongoArchive{session: session, dbName: dbName, collection: collection}, nil
}

func (a *MongoArchive) coll() *mgo.Collection {
	return a.session.DB(a.dbName).C(a.collection)
}

// Archive stores the raw content behind docID/docKey for later replay.
func (a *MongoArchive) Archive(docID uint32, docKey string, content []byte, recordedAt int64) error {
	return a.coll().Insert(&archiveDoc{
		ID_:      bson.NewObjectId(),
		DocID:    docID,
		DocKey:   docKey,
		Content:  content,
		Recorded: recordedAt,
	})
}

// Fetch returns the archived content for a document id, if any.
func (a *MongoArchive) Fetch(docID uint32) ([]byte, bool, error) {
	var doc archiveDoc
	err := a.coll().Find(bson.M{"doc_id": docID}).One(&doc)
	if err == mgo.ErrNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("pipeline: fetch archive: %w", err)
	}
	return doc.Content, true, nil
}

// Replay streams every archived document to fn, in insertion order,
// driving a re-parse/re-insert pass against a rebuilt index engine.
func (a *MongoArchive) Replay(fn func(docID uint32, docKey string, content []byte) error) error {
	iter := a.coll().Find(nil).Sort("recorded").Iter()
	var doc archiveDoc
	for iter.Next(&doc) {
		if err := fn(doc.DocID, doc.DocKey, doc.Content); err != nil {
			iter.Close()
			return err
		}
	}
	return iter.Close()
}

// Close releases the underlying Mongo session.
func (a *MongoArchive) Close() error {
	a.session.Close()
	return nil
}
