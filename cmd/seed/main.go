// Seeds a demo instance with a small IPTV menu tree, a few global triggers
// and the variables they reference. Running it twice is safe: existing menus
// for the instance are replaced.
package main

import (
	"log"

	"gorm.io/gorm"

	"chatbot-gateway/internal/config"
	"chatbot-gateway/internal/database"
	"chatbot-gateway/internal/models"
)

func main() {
	cfg := config.LoadConfig()
	database.Init(cfg)
	database.EnsureDefaultInstance(cfg.DefaultInstance)

	var instance models.Instance
	if err := database.GormDB.Where("name = ?", cfg.DefaultInstance).First(&instance).Error; err != nil {
		log.Fatalf("Instance %s not found: %v", cfg.DefaultInstance, err)
	}

	log.Printf("Seeding demo data for instance %s (id %d)", instance.Name, instance.ID)

	err := database.GormDB.Transaction(func(tx *gorm.DB) error {
		// wipe previous config for the instance, keep contacts and logs
		if err := tx.Where("instance_id = ?", instance.ID).Delete(&models.MenuOption{}).Error; err != nil {
			return err
		}
		if err := tx.Where("instance_id = ?", instance.ID).Delete(&models.Menu{}).Error; err != nil {
			return err
		}
		if err := tx.Where("instance_id = ?", instance.ID).Delete(&models.GlobalTrigger{}).Error; err != nil {
			return err
		}
		if err := tx.Where("instance_id = ?", instance.ID).Delete(&models.Variable{}).Error; err != nil {
			return err
		}

		if err := seedVariables(tx, instance.ID); err != nil {
			return err
		}
		if err := seedMenus(tx, instance.ID); err != nil {
			return err
		}
		return seedTriggers(tx, instance.ID)
	})
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Println("Seeding completed")
}

func seedVariables(tx *gorm.DB, instanceID uint) error {
	variables := []models.Variable{
		{InstanceID: instanceID, VariableKey: "preco_mensal", VariableValue: "R$ 25,00"},
		{InstanceID: instanceID, VariableKey: "preco_trimestral", VariableValue: "R$ 65,00"},
		{InstanceID: instanceID, VariableKey: "pix", VariableValue: "pagamentos@exemplo.com.br"},
		{InstanceID: instanceID, VariableKey: "horario", VariableValue: "das 9h às 22h"},
	}
	return tx.Create(&variables).Error
}

func seedMenus(tx *gorm.DB, instanceID uint) error {
	menus := []models.Menu{
		{
			InstanceID:  instanceID,
			MenuKey:     "main",
			Title:       "Menu Principal",
			MessageText: "Olá {nome}! Sou o atendimento automático. Escolha uma opção:",
			Options: []models.MenuOption{
				{InstanceID: instanceID, OptionNumber: 1, OptionText: "Planos e preços", ListID: "opt_planos", Keywords: "plano, planos, preço, precos, valores", ActionType: "menu", TargetMenuKey: "planos", SortOrder: 1},
				{InstanceID: instanceID, OptionNumber: 2, OptionText: "Teste grátis", ListID: "opt_teste", Keywords: "teste, testar, gratis, grátis", ActionType: "menu", TargetMenuKey: "teste", SortOrder: 2},
				{InstanceID: instanceID, OptionNumber: 3, OptionText: "Suporte técnico", ListID: "opt_suporte", Keywords: "suporte, problema, travando, ajuda", ActionType: "menu", TargetMenuKey: "suporte", SortOrder: 3},
				{InstanceID: instanceID, OptionNumber: 4, OptionText: "Falar com atendente", ListID: "opt_atendente", Keywords: "atendente, humano, pessoa", ActionType: "human", SortOrder: 4},
			},
		},
		{
			InstanceID:    instanceID,
			MenuKey:       "planos",
			Title:         "Planos",
			MessageText:   "Nossos planos:\n\n*Mensal*: {preco_mensal}\n*Trimestral*: {preco_trimestral}",
			ParentMenuKey: "main",
			Options: []models.MenuOption{
				{InstanceID: instanceID, OptionNumber: 1, OptionText: "Assinar plano mensal", ListID: "opt_assinar_mensal", Keywords: "mensal", ActionType: "message", ResponseText: "Ótima escolha! Envie {preco_mensal} via PIX para {pix} e mande o comprovante aqui.", SortOrder: 1},
				{InstanceID: instanceID, OptionNumber: 2, OptionText: "Assinar plano trimestral", ListID: "opt_assinar_trimestral", Keywords: "trimestral", ActionType: "message", ResponseText: "Ótima escolha! Envie {preco_trimestral} via PIX para {pix} e mande o comprovante aqui.", SortOrder: 2},
				{InstanceID: instanceID, OptionNumber: 3, OptionText: "Dúvidas sobre planos", ListID: "opt_duvidas_planos", Keywords: "duvida, dúvida", ActionType: "human", SortOrder: 3},
			},
		},
		{
			InstanceID:    instanceID,
			MenuKey:       "teste",
			Title:         "Teste grátis",
			MessageText:   "Liberamos um teste de 4 horas. Escolha o aplicativo:",
			ParentMenuKey: "main",
			Options: []models.MenuOption{
				{InstanceID: instanceID, OptionNumber: 1, OptionText: "Smart TV", ListID: "opt_teste_tv", Keywords: "tv, smart", ActionType: "message", ResponseText: "Perfeito! Em instantes um atendente envia seu acesso de teste para Smart TV.", SortOrder: 1},
				{InstanceID: instanceID, OptionNumber: 2, OptionText: "Celular", ListID: "opt_teste_celular", Keywords: "celular, android, iphone", ActionType: "message", ResponseText: "Perfeito! Em instantes um atendente envia seu acesso de teste para celular.", SortOrder: 2},
			},
		},
		{
			InstanceID:    instanceID,
			MenuKey:       "suporte",
			Title:         "Suporte",
			MessageText:   "Qual o problema? Atendemos {horario}.",
			ParentMenuKey: "main",
			Options: []models.MenuOption{
				{InstanceID: instanceID, OptionNumber: 1, OptionText: "Travando / buffering", ListID: "opt_travando", Keywords: "travando, buffering, lento", ActionType: "message", ResponseText: "Reinicie o aplicativo e o roteador. Se continuar travando, digite 2.", SortOrder: 1},
				{InstanceID: instanceID, OptionNumber: 2, OptionText: "Falar com o suporte", ListID: "opt_suporte_humano", Keywords: "", ActionType: "human", SortOrder: 2},
				{InstanceID: instanceID, OptionNumber: 3, OptionText: "Encerrar atendimento", ListID: "opt_encerrar", Keywords: "encerrar, sair, tchau", ActionType: "end", SortOrder: 3},
			},
		},
	}

	for i := range menus {
		if err := tx.Create(&menus[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

func seedTriggers(tx *gorm.DB, instanceID uint) error {
	triggers := []models.GlobalTrigger{
		{InstanceID: instanceID, TriggerName: "renovacao", Keywords: "renovar, renovação, renovacao, venceu", Priority: 100, ActionType: "message", ResponseText: "Para renovar, envie o valor do seu plano via PIX para {pix} e mande o comprovante.", Enabled: true, SortOrder: 1},
		{InstanceID: instanceID, TriggerName: "pagamento", Keywords: "pix, pagar, pagamento, comprovante", Priority: 90, ActionType: "human", ResponseText: "Recebido! Um atendente vai confirmar seu pagamento. Digite *00* para voltar ao menu.", Enabled: true, SortOrder: 2},
		{InstanceID: instanceID, TriggerName: "saudacao", Keywords: "oi, ola, olá, bom dia, boa tarde, boa noite", Priority: 10, ActionType: "menu", TargetMenuKey: "main", Enabled: true, SortOrder: 3},
	}
	return tx.Create(&triggers).Error
}
