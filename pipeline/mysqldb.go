// Package pipeline provides optional secondary sinks the index engine
// can mirror activity into: a relational audit trail and a document
// archive, alongside the primary ordered store.
package pipeline

import (
	"time"

	"github.com/astaxie/beego/orm"
	_ "github.com/go-sql-driver/mysql"
)

// auditEntry is one row of the insert/delete audit trail: what document
// id and key were assigned or removed, and when.
type auditEntry struct {
	ID        int64 `orm:"pk;auto"`
	DocID     uint32
	DocKey    string `orm:"size(512)"`
	Action    string `orm:"size(16)"`
	Timestamp time.Time
}

// MySQLAuditSink mirrors every insert/delete decision the index engine
// makes to a relational table, independent of the primary store, so an
// operator can reconstruct the id-assignment history even if the
// primary store is corrupted or rolled back.
type MySQLAuditSink struct {
	alias string
}

// NewMySQLAuditSink registers a MySQL connection under alias and ensures
// the audit table exists. dsn follows go-sql-driver/mysql's DSN format.
func NewMySQLAuditSink(alias, dsn string) (*MySQLAuditSink, error) {
	if err := orm.RegisterDriver("mysql", orm.DRMySQL); err != nil {
		return nil, err
	}
	if err := orm.RegisterDataBase(alias, "mysql", dsn); err != nil {
		return nil, err
	}
	orm.RegisterModel(new(auditEntry))
	s := &MySQLAuditSink{alias: alias}
	o := orm.NewOrm()
	o.Using(alias)
	if _, err := o.Raw(`CREATE TABLE IF NOT EXISTS auditentry (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		doc_id INT UNSIGNED NOT NULL,
		doc_key VARCHAR(512) NOT NULL,
		action VARCHAR(16) NOT NULL,
		timestamp DATETIME NOT NULL
	)`).Exec(); err != nil {
		return nil, err
	}
	return s, nil
}

// RecordInsert appends an "insert" audit row for a newly assigned
// document id.
func (s *MySQLAuditSink) RecordInsert(docID uint32, docKey string, at time.Time) error {
	return s.record(docID, docKey, "insert", at)
}

// RecordDelete appends a "delete" audit row for a document id the
// engine marked deleted.
func (s *MySQLAuditSink) RecordDelete(docID uint32, docKey string, at time.Time) error {
	return s.record(docID, docKey, "delete", at)
}

func (s *MySQLAuditSink) record(docID uint32, docKey, action string, at time.Time) error {
	o := orm.NewOrm()
	o.Using(s.alias)
	_, err := o.Insert(&auditEntry{DocID: docID, DocKey: docKey, Action: action, Timestamp: at})
	return err
}

// History returns every audit row for a document id, oldest first.
func (s *MySQLAuditSink) History(docID uint32) ([]auditEntry, error) {
	o := orm.NewOrm()
	o.Using(s.alias)
	var entries []auditEntry
	_, err := o.QueryTable(new(auditEntry)).Filter("DocID", docID).OrderBy("Timestamp").All(&entries)
	return entries, err
}
