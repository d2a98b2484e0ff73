// Package database embed dosyası — migration SQL dosyalarını binary'ye gömer.
//
// Go'nun embed paketi, derleme zamanında dosyaları binary'nin içine gömer.
// Bu sayede deploy edilen binary yanında migration dosyalarına ihtiyaç duymaz.
// //go:embed directive'i derleyiciye hangi dosyaları gömeceğini söyler.
package database

import (
	"embed"
	"io/fs"
)

// EmbeddedMigrations, migrations/ dizinindeki SQL dosyalarını içerir.
//
//go:embed migrations/*.sql
var EmbeddedMigrations embed.FS

// Migrations, embed kökündeki "migrations/" önekini soyar ve SQL
// dosyalarını doğrudan kök seviyede gören bir fs.FS döner.
// New() bu FS'i bekler.
func Migrations() fs.FS {
	sub, err := fs.Sub(EmbeddedMigrations, "migrations")
	if err != nil {
		// Derleme zamanında gömülü dizin — bu hata ancak embed
		// directive'i bozulursa oluşur.
		panic(err)
	}
	return sub
}
