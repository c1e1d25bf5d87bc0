// Package oracle инкапсулирует обмен с AI стандартизатором.
//
// Транспорт — Anthropic Messages API с prompt caching: запрос состоит
// из кэшируемого сегмента (инструкции + стандарты группы, помечены
// cache_control ephemeral) и динамического сегмента (товары батча).
// Для API без поддержки кэширования пометка — необязательная
// подсказка, а не требование корректности.
//
// Gateway собирает запросы и разбирает структурированные ответы;
// retry здесь намеренно нет — политика повторов принадлежит
// диспетчеру.
package oracle
