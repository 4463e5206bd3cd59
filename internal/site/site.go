// Package site stores the free-text site name and comment shown on every page.
package site

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/jkaflik/birdcam/internal/kv"
)

const DefaultName = "*site name not set*"

const (
	nameNamespace    = "Site"
	commentNamespace = "Comment"
	key              = "Name"
)

type Info struct {
	Name    string `json:"name"`
	Comment string `json:"comment"`
}

// Load never fails; unreadable values fall back to DefaultName and an empty comment.
func Load(store kv.Store) Info {
	return Info{
		Name:    get(store, nameNamespace, DefaultName),
		Comment: get(store, commentNamespace, ""),
	}
}

func Save(store kv.Store, info Info) error {
	if err := put(store, nameNamespace, info.Name); err != nil {
		return err
	}
	return put(store, commentNamespace, info.Comment)
}

func get(store kv.Store, namespace, def string) string {
	ns, err := store.Open(namespace, true)
	if err != nil {
		logrus.Errorf("site: open %s failed: %s", namespace, err)
		return def
	}
	defer ns.Close()

	return ns.GetString(key, def)
}

func put(store kv.Store, namespace, value string) error {
	ns, err := store.Open(namespace, false)
	if err != nil {
		return errors.Wrapf(err, "site: open %s", namespace)
	}

	if err := ns.PutString(key, value); err != nil {
		ns.Close()
		return errors.Wrapf(err, "site: write %s", namespace)
	}

	return errors.Wrapf(ns.Close(), "site: save %s", namespace)
}
