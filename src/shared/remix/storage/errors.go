package remixstorage

import "github.com/cockroachdb/errors/domains"

var (
	JobNotFound      = domains.New("remix_job_not_found")
	IDEmptyMark      = domains.New("remix_job_id_empty")
	UnmarshalMark    = domains.New("remix_job_unmarshal_fail")
	MarshalMark      = domains.New("remix_job_marshal_fail")
	ConflictMark     = domains.New("remix_job_update_conflict")
	DefaultErrorMark = domains.New("default_error")
)
