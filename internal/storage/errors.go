package storage

import "errors"

// ErrEntryNotFound возвращается, когда запись с указанным именем отсутствует в хранилище
var ErrEntryNotFound = errors.New("entry not found")

// ErrStorageClosed возвращается при обращении к закрытому хранилищу
var ErrStorageClosed = errors.New("storage is closed")
