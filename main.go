package main

import (
	"os"

	"taskboard/config"
	"taskboard/dao/query"
	"taskboard/logutils"
	"taskboard/service"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// .env is optional; real deployments mount etc/config.yaml.
	_ = godotenv.Load()

	conf := config.GetConfig()
	logutils.SetLevel(conf.Log.Level)
	if conf.Log.File != "" {
		logutils.UseFile(conf.Log.File)
	}
	if conf.Server.Mode != "" {
		gin.SetMode(conf.Server.Mode)
	}

	if err := query.InitDB(); err != nil {
		logutils.Log.Error("err init: ", err)
		os.Exit(1)
	}
	if err := query.Migrate(query.DB); err != nil {
		logutils.Log.Error("err migrate: ", err)
		os.Exit(1)
	}

	r := gin.Default()
	public := r.Group("/api/v1")
	authed := r.Group("/api/v1", service.AuthRequired())

	service.RegisterAuth(public, authed)
	service.RegisterUsers(authed)
	service.RegisterProjects(authed)
	service.RegisterTaskLists(authed)
	service.RegisterTasks(authed)
	service.RegisterComments(authed)
	service.RegisterAttachments(authed)
	service.RegisterCustomers(authed)
	service.RegisterEquipment(authed)

	if err := r.Run(conf.Server.Addr); err != nil {
		logutils.Log.Fatal(err)
	}
}
