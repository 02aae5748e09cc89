package cerr

import (
	"github.com/apex/log"
	"github.com/cockroachdb/errors"
)

// Context accumulates structured fields and an optional cause
// until Error turns it into an error. Fields are logged by Log.
type Context struct {
	fields log.Fields
	cause  error
}

func Field(key string, value any) Context {
	return Context{}.Field(key, value)
}

func Fields(fields log.Fields) Context {
	return Context{}.Fields(fields)
}

func Wrap(err error) Context {
	return Context{}.Wrap(err)
}

func Error(msg string) error {
	return Context{}.error(msg)
}

func (c Context) Field(key string, value any) Context {
	return c.Fields(log.Fields{key: value})
}

func (c Context) Fields(fields log.Fields) Context {
	merged := log.Fields{}
	for k, v := range c.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}

	return Context{
		fields: merged,
		cause:  c.cause,
	}
}

func (c Context) Wrap(err error) Context {
	return Context{
		fields: c.fields,
		cause:  err,
	}
}

func (c Context) Error(msg string) error {
	return c.error(msg)
}

func (c Context) error(msg string) error {
	var err error
	if c.cause == nil {
		err = errors.NewWithDepth(2, msg)
	} else {
		err = errors.WrapWithDepth(2, c.cause, msg)
	}

	if len(c.fields) == 0 {
		return err
	}

	return &fieldError{
		cause:  err,
		fields: c.fields,
	}
}

type fieldError struct {
	cause  error
	fields log.Fields
}

func (f *fieldError) Error() string {
	return f.cause.Error()
}

func (f *fieldError) Unwrap() error {
	return f.cause
}

// CollectFields gathers fields from every layer of err, outer layers win.
func CollectFields(err error) log.Fields {
	collected := log.Fields{}

	for current := err; current != nil; current = errors.UnwrapOnce(current) {
		fieldErr, ok := current.(*fieldError)
		if !ok {
			continue
		}

		for k, v := range fieldErr.fields {
			if _, exists := collected[k]; !exists {
				collected[k] = v
			}
		}
	}

	return collected
}

func Log(err error) {
	if err == nil {
		return
	}

	log.WithFields(CollectFields(err)).
		WithError(err).
		Error("Error occurred")
}
