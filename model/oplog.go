package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OpType is the single-letter operation kind stored in an oplog entry's op field.
type OpType string

const (
	OpNoop    OpType = "n"
	OpCommand OpType = "c"
	OpInsert  OpType = "i"
	OpUpdate  OpType = "u"
	OpDelete  OpType = "d"
)

var OpTypes = [...]OpType{OpNoop, OpCommand, OpInsert, OpUpdate, OpDelete}

func (o OpType) Valid() bool {
	for _, t := range OpTypes {
		if o == t {
			return true
		}
	}
	return false
}

// Describe returns the long name of the operation kind.
func (o OpType) Describe() string {
	switch o {
	case OpNoop:
		return "noop"
	case OpCommand:
		return "command"
	case OpInsert:
		return "insert"
	case OpUpdate:
		return "update"
	case OpDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// SessionID is the lsid subdocument carried by transactional writes.
type SessionID struct {
	ID  primitive.Binary `bson:"id"`
	UID primitive.Binary `bson:"uid,omitempty"`
}

type OpLog struct {
	Timestamp   primitive.Timestamp `bson:"ts"`
	Term        int64               `bson:"t,omitempty"`
	Version     int                 `bson:"v,omitempty"`
	Operation   OpType              `bson:"op"`
	Namespace   string              `bson:"ns,omitempty"`
	UI          *primitive.Binary   `bson:"ui,omitempty"`
	Doc         bson.D              `bson:"o,omitempty"`
	Update      bson.D              `bson:"o2,omitempty"`
	Wall        time.Time           `bson:"wall,omitempty"`
	Session     *SessionID          `bson:"lsid,omitempty"`
	TxnNumber   *int64              `bson:"txnNumber,omitempty"`
	StatementID interface{}         `bson:"stmtId,omitempty"`
	PrevOpTime  bson.Raw            `bson:"prevOpTime,omitempty"`
}

